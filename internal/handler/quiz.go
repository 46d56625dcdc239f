package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/zizouhuweidi/quizflow/internal/domain"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// Validator adapts go-playground/validator to echo
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates the echo validator
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate validates a request struct
func (v *Validator) Validate(i any) error {
	return v.validate.Struct(i)
}

// QuizHandler handles quiz-related HTTP requests
type QuizHandler struct {
	quizService domain.QuizService
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quizService domain.QuizService) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
	}
}

// Register registers the quiz routes
func (h *QuizHandler) Register(e *echo.Echo) {
	g := e.Group("/api/quiz")
	g.GET("", h.GetQuiz)
	g.POST("/start", h.Start)
	g.POST("/answers", h.SubmitAnswer)
	g.POST("/reload", h.Reload)
}

// AnswerRequest is the body of an answer submission. A null or missing
// answer means the player gave none. Question is the 1-based number of the
// question being answered; 0 or missing answers whichever is current.
type AnswerRequest struct {
	Question int     `json:"question" validate:"gte=0"`
	Answer   *string `json:"answer" validate:"omitempty,max=1000"`
}

// GetQuiz returns the current screen state
func (h *QuizHandler) GetQuiz(c echo.Context) error {
	return c.JSON(http.StatusOK, h.quizService.View())
}

// Start starts or restarts the quiz
func (h *QuizHandler) Start(c echo.Context) error {
	snap, err := h.quizService.Start(c.Request().Context())
	if err != nil {
		return actionError(err)
	}
	return c.JSON(http.StatusOK, snap)
}

// SubmitAnswer answers the current question
func (h *QuizHandler) SubmitAnswer(c echo.Context) error {
	var req AnswerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	snap, err := h.quizService.SubmitAnswer(c.Request().Context(), req.Question, req.Answer)
	if err != nil {
		return actionError(err)
	}
	return c.JSON(http.StatusOK, snap)
}

// Reload fetches the quiz again. A failed fetch is not a request error: the
// returned view carries the error status.
func (h *QuizHandler) Reload(c echo.Context) error {
	err := h.quizService.Reload(c.Request().Context())
	if err != nil {
		var loadErr *domain.LoadError
		if !errors.As(err, &loadErr) {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, h.quizService.View())
}

func actionError(err error) error {
	switch {
	case errors.Is(err, domain.ErrQuizUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "quiz is not available")
	case errors.Is(err, domain.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, "action not allowed in the current phase")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
