package handler

import (
	"github.com/labstack/echo/v4"

	"marketplace/internal/usecase"
	"marketplace/pkg/response"
)

type UserHandler struct {
	userUseCase *usecase.UserUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
	}
}

func (h *UserHandler) GetMe(c echo.Context) error {
	user, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	profile, err := h.userUseCase.GetProfile(c.Request().Context(), user.ID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, profile)
}

// Role is not part of this projection.
type updateProfileRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=50,username"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	FullName *string `json:"full_name" validate:"omitempty,min=2,max=100,fullname"`
}

func (h *UserHandler) UpdateMe(c echo.Context) error {
	user, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	updated, err := h.userUseCase.UpdateProfile(c.Request().Context(), user.ID, usecase.UpdateProfileInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, updated)
}
