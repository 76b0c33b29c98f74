package handler

import (
	"net/http"
	"time"

	"docflow/internal/middleware"
	"docflow/internal/service"
	"docflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService  service.AuthService
	userService  service.UserService
	guard        *middleware.Guard
	secureCookie bool
}

// NewAuthHandler wires the login endpoints. secureCookie selects the
// production cookie settings.
func NewAuthHandler(authService service.AuthService, userService service.UserService, guard *middleware.Guard, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService, guard: guard, secureCookie: secureCookie}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/register", h.Register)
	router.POST("/login", h.Login)
	router.POST("/logout", h.guard.Require(middleware.OpLogout), h.Logout)
	router.GET("/me", h.guard.Require(middleware.OpMe), h.GetMe)
}

// Register creates a regular user account
// @Summary      Register
// @Description  Public sign-up. The account always gets the user role.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterRequest  true  "Account details"
// @Success      201      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	res, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setCookie(c, res)
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// Login handles POST /login to authenticate and return a JWT token
// @Summary      Login user
// @Description  Authenticates a user by username and password, returning a JWT token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload")
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setCookie(c, res)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

func (h *AuthHandler) setCookie(c *gin.Context, res *service.TokenResponse) {
	expiresAt, err := time.Parse(time.RFC3339, res.ExpiresAt)
	if err != nil {
		return
	}
	middleware.SetTokenCookie(c, res.Token, expiresAt, h.secureCookie)
}

// Logout revokes the current token and clears the cookie
// @Summary      Logout user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.TokenFromRequest(c)); err != nil {
		respondError(c, err)
		return
	}

	middleware.ClearTokenCookie(c, h.secureCookie)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Logged out successfully"}))
}

// GetMe handles GET /me to return current authenticated user
// @Summary      Get current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      401  {object}  response.Response
// @Router       /me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	user, err := h.userService.GetUserByID(c.Request.Context(), actor(c).ID.String())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}
