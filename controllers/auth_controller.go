package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parampara-foods/models"
	"parampara-foods/services"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

func (ctl *AuthController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := ctl.auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (ctl *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := ctl.auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (ctl *AuthController) GoogleAuth(c *gin.Context) {
	var req models.GoogleAuthRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := ctl.auth.GoogleAuth(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (ctl *AuthController) SendCode(c *gin.Context) {
	var req models.PhoneSendCodeRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := ctl.auth.SendCode(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (ctl *AuthController) VerifyCode(c *gin.Context) {
	var req models.PhoneVerifyRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := ctl.auth.VerifyCode(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
