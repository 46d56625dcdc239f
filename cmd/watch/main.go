package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/gommon/log"
	"github.com/zizouhuweidi/quizflow/internal/config"
	"github.com/zizouhuweidi/quizflow/internal/database"
	"github.com/zizouhuweidi/quizflow/internal/session"
)

// watch prints the session events mirrored to Redis by the api server
func main() {
	cfg := config.Load()
	logger := log.New("watch")
	logger.SetHeader("${time_rfc3339} ${prefix}")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := database.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatalf("Failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	pubsub := session.NewManager(redisClient, cfg.Redis.SnapshotTTL).Subscribe(ctx)
	defer pubsub.Close()

	logger.Infof("watching %s", session.EventsChannel)
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event session.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Warnf("skipping malformed event: %v", err)
				continue
			}
			snap := event.Snapshot
			logger.Infof("%s session=%s phase=%s question=%d/%d score=%d streak=%d",
				event.Type, snap.SessionID, snap.Phase, snap.QuestionNumber, snap.TotalQuestions, snap.Score, snap.Streak)
		}
	}
}
