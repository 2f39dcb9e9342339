package handler

import (
	"strings"

	"github.com/labstack/echo/v4"

	"marketplace/internal/usecase"
	"marketplace/pkg/errors"
	"marketplace/pkg/response"
)

type AuthHandler struct {
	authUseCase *usecase.AuthUseCase
}

func NewAuthHandler(authUseCase *usecase.AuthUseCase) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
	}
}

type registerRequest struct {
	Username     string `json:"username" validate:"required,min=3,max=50,username"`
	Email        string `json:"email" validate:"required,email,max=255"`
	Password     string `json:"password" validate:"required,min=8,max=100,strong_password"`
	FullName     string `json:"full_name" validate:"required,min=2,max=100,fullname"`
	ReferralCode string `json:"referral_code" validate:"omitempty,max=20,referral_code"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	req.ReferralCode = strings.ToUpper(strings.TrimSpace(req.ReferralCode))

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.authUseCase.Register(c.Request().Context(), usecase.RegisterInput{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		FullName:     req.FullName,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, result)
}

type loginRequest struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	identifier := req.Email
	if identifier == "" {
		identifier = req.Username
	}
	if identifier == "" {
		return response.Error(c, errors.BadRequest("username or email is required", nil))
	}

	result, err := h.authUseCase.Login(c.Request().Context(), identifier, req.Password)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}
