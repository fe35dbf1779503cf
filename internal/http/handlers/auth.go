package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sparkonix11/Knowtopia/internal/http/middleware"
	"github.com/Sparkonix11/Knowtopia/internal/http/response"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
	"github.com/Sparkonix11/Knowtopia/internal/services"
)

type AuthHandler struct {
	log          *logger.Logger
	authService  services.AuthService
	cookieSecure bool
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{log: log.With("handler", "AuthHandler"), authService: authService, cookieSecure: cookieSecure}
}

func (ah *AuthHandler) setSession(c *gin.Context, sess *services.Session) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = int(ah.authService.AccessTTL().Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, sess.Token, maxAge, "/", "", ah.cookieSecure, true)
}

func (ah *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Email           string `json:"email" form:"email"`
		Password        string `json:"password" form:"password"`
		PasswordConfirm string `json:"password_confirm" form:"password_confirm"`
		FirstName       string `json:"fname" form:"fname"`
		LastName        string `json:"lname" form:"lname"`
		Phone           string `json:"phone" form:"phone"`
		IsInstructor    bool   `json:"is_instructor" form:"is_instructor"`
	}
	if err := c.ShouldBind(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	files := &uploads{}
	defer files.Close()
	image, err := files.get(c, "image")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	user, sess, err := ah.authService.Signup(c.Request.Context(), services.SignupInput{
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           req.Phone,
		IsInstructor:    req.IsInstructor,
		Image:           image,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	ah.setSession(c, sess)
	response.RespondMessage(c, http.StatusCreated, "User created", gin.H{"user": user})
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}
	if err := c.ShouldBind(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	user, sess, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	ah.setSession(c, sess)
	response.RespondMessage(c, http.StatusOK, "User logged in", gin.H{"user": user})
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.Logout(c.Request.Context()); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", ah.cookieSecure, true)
	response.RespondMessage(c, http.StatusOK, "User logged out", nil)
}
