package handler

import (
	"github.com/labstack/echo/v4"

	"marketplace/internal/usecase"
	"marketplace/pkg/response"
)

type ReferralHandler struct {
	referralUseCase *usecase.ReferralUseCase
}

func NewReferralHandler(referralUseCase *usecase.ReferralUseCase) *ReferralHandler {
	return &ReferralHandler{
		referralUseCase: referralUseCase,
	}
}

type referralCodeRequest struct {
	Code string `param:"code" validate:"required,min=1,max=20,referral_code"`
}

func (h *ReferralHandler) ValidateCode(c echo.Context) error {
	var req referralCodeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.referralUseCase.ValidateCode(c.Request().Context(), req.Code)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

func (h *ReferralHandler) GetStats(c echo.Context) error {
	user, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	stats, err := h.referralUseCase.GetStats(c.Request().Context(), user.ID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, stats)
}

func (h *ReferralHandler) MyReferrals(c echo.Context) error {
	user, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	referrals, err := h.referralUseCase.MyReferrals(c.Request().Context(), user.ID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, referrals)
}

func (h *ReferralHandler) GetLink(c echo.Context) error {
	user, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	link, err := h.referralUseCase.GetLink(c.Request().Context(), user.ID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, link)
}
