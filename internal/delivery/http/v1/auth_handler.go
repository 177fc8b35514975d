package v1

import (
	"net/http"

	"food-expose-backend/internal/delivery/http/response"
	"food-expose-backend/internal/domain"
	"food-expose-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authUC domain.AuthUsecase
}

func NewAuthHandler(r *gin.RouterGroup, authUC domain.AuthUsecase, limiter gin.HandlerFunc) {
	handler := &AuthHandler{authUC: authUC}

	auth := r.Group("/auth")
	auth.Use(limiter)
	{
		auth.POST("/signin", handler.SignIn)
		auth.POST("/signup", handler.SignUp)
		auth.POST("/signout", handler.SignOut)
	}
}

// SignIn godoc
// @Summary      Sign in
// @Description  Sign in with email and password. The gate follows the resulting session change.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      domain.SignInRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=domain.Session}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Failure      502      {object}  response.Response
// @Router       /auth/signin [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req domain.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body: " + err.Error()))
		return
	}

	session, err := h.authUC.SignIn(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Signed in", session)
}

// SignUp godoc
// @Summary      Sign up
// @Description  Create an account. Projects that require email confirmation answer 403 until the address is confirmed.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      domain.SignUpRequest  true  "Account details"
// @Success      201      {object}  response.Response{data=domain.Session}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /auth/signup [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req domain.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body: " + err.Error()))
		return
	}

	session, err := h.authUC.SignUp(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusCreated, "Account created", session)
}

// SignOut godoc
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /auth/signout [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	if err := h.authUC.SignOut(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Signed out", nil)
}
