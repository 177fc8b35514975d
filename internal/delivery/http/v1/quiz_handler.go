package v1

import (
	"errors"
	"net/http"

	"food-expose-backend/internal/delivery/http/response"
	"food-expose-backend/internal/domain"
	"food-expose-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type QuizHandler struct {
	quizUC domain.QuizUsecase
}

type SelectOptionRequest struct {
	Option string `json:"option" binding:"required,not_blank"`
}

func NewQuizHandler(r *gin.RouterGroup, quizUC domain.QuizUsecase) {
	handler := &QuizHandler{quizUC: quizUC}

	quiz := r.Group("/quiz")
	{
		quiz.GET("", handler.View)
		quiz.POST("/start", handler.Start)
		quiz.POST("/select", handler.Select)
		quiz.POST("/advance", handler.Advance)
		quiz.POST("/confirm", handler.Confirm)
	}
}

// View godoc
// @Summary      Current quiz question
// @Tags         quiz
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.QuizView}
// @Failure      409  {object}  response.Response
// @Router       /quiz [get]
func (h *QuizHandler) View(c *gin.Context) {
	response.Success(c, http.StatusOK, "Quiz", h.quizUC.View())
}

// Start godoc
// @Summary      Restart the quiz
// @Description  Discards progress and shows the first question.
// @Tags         quiz
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.QuizView}
// @Failure      409  {object}  response.Response
// @Router       /quiz/start [post]
func (h *QuizHandler) Start(c *gin.Context) {
	h.quizUC.Start()
	response.Success(c, http.StatusOK, "Quiz started", h.quizUC.View())
}

// Select godoc
// @Summary      Select an option
// @Description  Selecting again replaces the previous choice.
// @Tags         quiz
// @Accept       json
// @Produce      json
// @Param        request  body      SelectOptionRequest  true  "Option"
// @Success      200      {object}  response.Response{data=domain.QuizView}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /quiz/select [post]
func (h *QuizHandler) Select(c *gin.Context) {
	var req SelectOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body: " + err.Error()))
		return
	}

	view, err := h.quizUC.SelectOption(req.Option)
	if err != nil {
		c.Error(quizError(err))
		return
	}

	response.Success(c, http.StatusOK, "Option selected", view)
}

// Advance godoc
// @Summary      Next question
// @Description  Scores the selected option and moves on. After the last question the result is shown.
// @Tags         quiz
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.QuizView}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /quiz/advance [post]
func (h *QuizHandler) Advance(c *gin.Context) {
	view, err := h.quizUC.Advance()
	if err != nil {
		c.Error(quizError(err))
		return
	}

	response.Success(c, http.StatusOK, "Quiz advanced", view)
}

// Confirm godoc
// @Summary      Finish the quiz
// @Description  Persists completion for the signed-in user and moves the gate to the main stack.
// @Tags         quiz
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.QuizResult}
// @Failure      401  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /quiz/confirm [post]
func (h *QuizHandler) Confirm(c *gin.Context) {
	result, err := h.quizUC.Confirm(c.Request.Context())
	if err != nil {
		c.Error(quizError(err))
		return
	}

	msg := "Quiz completed"
	if result.Warning != "" {
		msg = result.Warning
	}
	response.Success(c, http.StatusOK, msg, result)
}

func quizError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNoSelection):
		return apperror.BadRequest("Select an option first")
	case errors.Is(err, domain.ErrUnknownOption):
		return apperror.BadRequest("Option is not part of the current question")
	case errors.Is(err, domain.ErrQuizFinished):
		return apperror.Conflict("Quiz already finished")
	case errors.Is(err, domain.ErrQuizNotFinished):
		return apperror.Conflict("Answer every question before finishing")
	case errors.Is(err, domain.ErrNotSignedIn):
		return apperror.Unauthorized("User not authenticated")
	default:
		return err
	}
}
