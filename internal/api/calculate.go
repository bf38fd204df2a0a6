package api

import (
	"context"
	"errors"

	"github.com/KlimSani4/hydrocalc/internal/apierr"
	"github.com/KlimSani4/hydrocalc/internal/auth"
	"github.com/KlimSani4/hydrocalc/internal/calculator"
	"github.com/KlimSani4/hydrocalc/internal/logger"
	"github.com/KlimSani4/hydrocalc/internal/models"

	"github.com/gin-gonic/gin"
)

// CalculationStore is the slice of the persistence gateway used by the
// calculate and history handlers.
type CalculationStore interface {
	InsertCalculation(ctx context.Context, accountID *int64, calc *models.Calculation) (*models.Calculation, error)
	ListCalculationsByAccount(ctx context.Context, accountID int64) ([]models.Calculation, error)
	FindCalculationForAccount(ctx context.Context, id, accountID int64) (*models.Calculation, error)
}

type CalculateHandler struct {
	log   *logger.Logger
	store CalculationStore
}

func NewCalculateHandler(log *logger.Logger, store CalculationStore) *CalculateHandler {
	return &CalculateHandler{log: log.With("handler", "CalculateHandler"), store: store}
}

type CalculateRequest struct {
	JuniorCount int    `json:"junior_count" binding:"min=0,max=1000000"`
	MiddleCount int    `json:"middle_count" binding:"min=0,max=1000000"`
	SeniorCount int    `json:"senior_count" binding:"min=0,max=1000000"`
	StaffCount  int    `json:"staff_count" binding:"min=0,max=1000000"`
	Season      string `json:"season" binding:"required,oneof=cold warm"`
	Activity    string `json:"activity" binding:"required,oneof=normal sport trip"`
}

func (r CalculateRequest) toEngine() calculator.Request {
	return calculator.Request{
		JuniorCount: r.JuniorCount,
		MiddleCount: r.MiddleCount,
		SeniorCount: r.SeniorCount,
		StaffCount:  r.StaffCount,
		Season:      calculator.Season(r.Season),
		Activity:    calculator.Activity(r.Activity),
	}
}

// Calculate is open to everyone; results are stored only for an
// authenticated principal.
func (h *CalculateHandler) Calculate(c *gin.Context) {
	var req CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, h.log, bindingError(err))
		return
	}
	in := req.toEngine()
	result, err := calculator.Calculate(in)
	if err != nil {
		if errors.Is(err, calculator.ErrInvalidEnum) || errors.Is(err, calculator.ErrNegativeCount) ||
			errors.Is(err, calculator.ErrCountTooLarge) {
			RespondError(c, h.log, apierr.Validation(err))
			return
		}
		RespondError(c, h.log, err)
		return
	}

	if accountID, ok := auth.AccountIDFromContext(c.Request.Context()); ok {
		row := &models.Calculation{
			JuniorCount: in.JuniorCount,
			MiddleCount: in.MiddleCount,
			SeniorCount: in.SeniorCount,
			StaffCount:  in.StaffCount,
			Season:      string(in.Season),
			Activity:    string(in.Activity),
			TotalWater:  result.TotalWater,
		}
		if _, err := h.store.InsertCalculation(c.Request.Context(), &accountID, row); err != nil {
			RespondError(c, h.log, err)
			return
		}
	}

	RespondOK(c, result)
}
