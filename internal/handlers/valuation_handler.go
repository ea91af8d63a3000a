package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/mgrant808/homeworth/api/internal/errors"
	"github.com/mgrant808/homeworth/api/internal/middleware"
	"github.com/mgrant808/homeworth/api/internal/models"
	"github.com/mgrant808/homeworth/api/internal/outlier"
	"github.com/mgrant808/homeworth/api/internal/services"
	"github.com/mgrant808/homeworth/api/internal/valuation"
)

// ValuationHandler handles valuation HTTP requests.
type ValuationHandler struct {
	service services.AppraisalService
}

// NewValuationHandler creates a new ValuationHandler instance.
func NewValuationHandler(service services.AppraisalService) *ValuationHandler {
	return &ValuationHandler{
		service: service,
	}
}

// ValuationRequest is the request body for the valuation endpoint.
type ValuationRequest struct {
	SubjectProperty      models.SubjectProperty   `json:"subjectProperty" binding:"required"`
	ComparableProperties []models.ComparableSale  `json:"comparableProperties"`
	AVMEstimate          *models.AVMEstimate      `json:"avmEstimate,omitempty"`
	MarketStatistics     *models.MarketStatistics `json:"marketStatistics,omitempty"`
	Options              *ValuationRequestOptions `json:"options,omitempty"`
}

// ValuationRequestOptions exposes the tunable parts of the valuation run.
// Absent fields keep the engine defaults.
type ValuationRequestOptions struct {
	UseAVM              *bool    `json:"useAVM,omitempty"`
	AVMWeight           *float64 `json:"avmWeight,omitempty" binding:"omitempty,min=0,max=1"`
	OutlierMethod       *string  `json:"outlierMethod,omitempty" binding:"omitempty,oneof=iqr modified_z chauvenet combined"`
	ConfidenceThreshold *float64 `json:"confidenceThreshold,omitempty" binding:"omitempty,min=0,max=1"`
}

// ValuationResponse is the success envelope for the valuation endpoint.
type ValuationResponse struct {
	Success bool                    `json:"success"`
	Data    *models.ValuationResult `json:"data"`
}

// Valuate handles POST /api/v1/valuations.
// It validates the request body, maps the options onto engine defaults and
// runs the appraisal. Insufficient evidence maps to 422; validation
// problems to 400.
func (h *ValuationHandler) Valuate(c *gin.Context) {
	log := middleware.GetLogger(c)

	var req ValuationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}

	opts, err := buildOptions(req.Options)
	if err != nil {
		apierrors.BadRequest(c, err.Error(), nil)
		return
	}

	if log != nil {
		log.Info("Processing valuation request", map[string]interface{}{
			"address":     req.SubjectProperty.Address,
			"comparables": len(req.ComparableProperties),
			"avm":         req.AVMEstimate != nil,
		})
	}

	result, err := h.service.Appraise(c.Request.Context(), services.AppraisalRequest{
		Subject:     req.SubjectProperty,
		Comparables: req.ComparableProperties,
		AVM:         req.AVMEstimate,
		Market:      req.MarketStatistics,
		Options:     opts,
	})
	if err != nil {
		if errors.Is(err, services.ErrInsufficientEvidence) {
			apierrors.UnprocessableEntity(c, apierrors.ErrInsufficientEvidence, err.Error())
			return
		}
		if errors.Is(err, services.ErrTooManyComparables) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to run valuation", err)
		return
	}

	c.JSON(http.StatusOK, ValuationResponse{
		Success: true,
		Data:    result,
	})
}

// buildOptions overlays request options onto the engine defaults.
func buildOptions(reqOpts *ValuationRequestOptions) (valuation.Options, error) {
	opts := valuation.DefaultOptions()
	if reqOpts == nil {
		return opts, nil
	}

	if reqOpts.UseAVM != nil {
		opts.UseAVM = *reqOpts.UseAVM
	}
	if reqOpts.AVMWeight != nil {
		opts.AVMWeight = reqOpts.AVMWeight
	}
	if reqOpts.ConfidenceThreshold != nil {
		opts.ConfidenceThreshold = *reqOpts.ConfidenceThreshold
	}
	if reqOpts.OutlierMethod != nil {
		method, err := outlier.ParseMethod(*reqOpts.OutlierMethod)
		if err != nil {
			return opts, err
		}
		opts.OutlierMethod = method
	}
	return opts, nil
}
