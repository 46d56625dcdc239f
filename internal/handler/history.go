package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/zizouhuweidi/quizflow/internal/domain"
	"github.com/zizouhuweidi/quizflow/internal/session"
)

// SnapshotStore reads mirrored session snapshots
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, sessionID string) (*domain.Snapshot, error)
}

// HistoryHandler serves snapshots of past and current sessions from the
// Redis mirror
type HistoryHandler struct {
	store SnapshotStore
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(store SnapshotStore) *HistoryHandler {
	return &HistoryHandler{store: store}
}

// Register registers the history routes
func (h *HistoryHandler) Register(e *echo.Echo) {
	e.GET("/api/quiz/sessions/:id", h.GetSession)
}

// GetSession returns the last mirrored snapshot of a session. The id
// "current" names the most recent session.
func (h *HistoryHandler) GetSession(c echo.Context) error {
	id := c.Param("id")
	if id == "current" {
		id = ""
	}

	snap, err := h.store.GetSnapshot(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrSnapshotNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		}
		c.Logger().Errorf("get snapshot %q: %v", id, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read session")
	}

	return c.JSON(http.StatusOK, snap)
}
