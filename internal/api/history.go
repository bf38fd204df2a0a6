package api

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/KlimSani4/hydrocalc/internal/apierr"
	"github.com/KlimSani4/hydrocalc/internal/auth"
	"github.com/KlimSani4/hydrocalc/internal/calculator"
	"github.com/KlimSani4/hydrocalc/internal/logger"
	"github.com/KlimSani4/hydrocalc/internal/models"
	"github.com/KlimSani4/hydrocalc/internal/storage"

	"github.com/gin-gonic/gin"
)

type HistoryHandler struct {
	log   *logger.Logger
	store CalculationStore
}

func NewHistoryHandler(log *logger.Logger, store CalculationStore) *HistoryHandler {
	return &HistoryHandler{log: log.With("handler", "HistoryHandler"), store: store}
}

type CalculationParams struct {
	JuniorCount int    `json:"junior_count"`
	MiddleCount int    `json:"middle_count"`
	SeniorCount int    `json:"senior_count"`
	StaffCount  int    `json:"staff_count"`
	Season      string `json:"season"`
	Activity    string `json:"activity"`
}

type HistoryItem struct {
	ID         int64             `json:"id"`
	TotalWater float64           `json:"total_water"`
	CreatedAt  time.Time         `json:"created_at"`
	Params     CalculationParams `json:"params"`
}

type HistoryDetail struct {
	HistoryItem
	Breakdown    calculator.Breakdown    `json:"breakdown"`
	Coefficients calculator.Coefficients `json:"coefficients"`
	TotalPeople  int                     `json:"total_people"`
}

func toHistoryItem(row models.Calculation) HistoryItem {
	return HistoryItem{
		ID:         row.ID,
		TotalWater: row.TotalWater,
		CreatedAt:  row.CreatedAt,
		Params: CalculationParams{
			JuniorCount: row.JuniorCount,
			MiddleCount: row.MiddleCount,
			SeniorCount: row.SeniorCount,
			StaffCount:  row.StaffCount,
			Season:      row.Season,
			Activity:    row.Activity,
		},
	}
}

// List returns the caller's calculations, newest first.
func (h *HistoryHandler) List(c *gin.Context) {
	accountID, ok := auth.AccountIDFromContext(c.Request.Context())
	if !ok {
		RespondError(c, h.log, apierr.Unauthorized(errors.New("could not validate credentials")))
		return
	}
	rows, err := h.store.ListCalculationsByAccount(c.Request.Context(), accountID)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	items := make([]HistoryItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, toHistoryItem(row))
	}
	RespondOK(c, items)
}

// Get returns one of the caller's calculations. The breakdown is rebuilt from
// the stored inputs; total_water is the value stored at creation time.
func (h *HistoryHandler) Get(c *gin.Context) {
	accountID, ok := auth.AccountIDFromContext(c.Request.Context())
	if !ok {
		RespondError(c, h.log, apierr.Unauthorized(errors.New("could not validate credentials")))
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, h.log, apierr.Validation(errors.New("id: not a valid integer")))
		return
	}
	row, err := h.store.FindCalculationForAccount(c.Request.Context(), id, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			RespondError(c, h.log, apierr.NotFound(errors.New("calculation not found")))
			return
		}
		RespondError(c, h.log, err)
		return
	}

	result, err := calculator.Calculate(calculator.Request{
		JuniorCount: row.JuniorCount,
		MiddleCount: row.MiddleCount,
		SeniorCount: row.SeniorCount,
		StaffCount:  row.StaffCount,
		Season:      calculator.Season(row.Season),
		Activity:    calculator.Activity(row.Activity),
	})
	if err != nil {
		RespondError(c, h.log, fmt.Errorf("rebuild calculation %d: %w", row.ID, err))
		return
	}

	RespondOK(c, HistoryDetail{
		HistoryItem:  toHistoryItem(*row),
		Breakdown:    result.Breakdown,
		Coefficients: result.Coefficients,
		TotalPeople:  result.TotalPeople,
	})
}
