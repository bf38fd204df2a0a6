package calculator

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Knetic/govaluate"
)

var (
	ErrInvalidEnum   = errors.New("invalid enum value")
	ErrNegativeCount = errors.New("count must be non-negative")
	ErrCountTooLarge = errors.New("count is too large")
)

// MaxCount bounds each head count so the total always fits in an int.
const MaxCount = 1_000_000

// V = SUM(Ni * Vi) * Ks * Ka, where the sum is already rounded.
const totalFormula = "base_total * season * activity"

var totalExpression = mustCompile(totalFormula)

func mustCompile(formula string) *govaluate.EvaluableExpression {
	expr, err := govaluate.NewEvaluableExpression(formula)
	if err != nil {
		panic(fmt.Sprintf("calculator: compile %q: %v", formula, err))
	}
	return expr
}

type Request struct {
	JuniorCount int      `json:"junior_count"`
	MiddleCount int      `json:"middle_count"`
	SeniorCount int      `json:"senior_count"`
	StaffCount  int      `json:"staff_count"`
	Season      Season   `json:"season"`
	Activity    Activity `json:"activity"`
}

// Count returns the head count for a category.
func (r Request) Count(c Category) int {
	switch c {
	case Junior:
		return r.JuniorCount
	case Middle:
		return r.MiddleCount
	case Senior:
		return r.SeniorCount
	case Staff:
		return r.StaffCount
	}
	return 0
}

func (r Request) TotalPeople() int {
	return r.JuniorCount + r.MiddleCount + r.SeniorCount + r.StaffCount
}

// Validate reports the first problem with r, wrapping ErrNegativeCount,
// ErrCountTooLarge or ErrInvalidEnum.
func (r Request) Validate() error {
	for _, c := range Categories {
		n := r.Count(c)
		if n < 0 {
			return fmt.Errorf("%s_count: %w", c, ErrNegativeCount)
		}
		if n > MaxCount {
			return fmt.Errorf("%s_count %d above %d: %w", c, n, MaxCount, ErrCountTooLarge)
		}
	}
	if !r.Season.Valid() {
		return fmt.Errorf("season %q: %w", r.Season, ErrInvalidEnum)
	}
	if !r.Activity.Valid() {
		return fmt.Errorf("activity %q: %w", r.Activity, ErrInvalidEnum)
	}
	return nil
}

type CategoryBreakdown struct {
	Count    int     `json:"count"`
	Norm     float64 `json:"norm"`
	Subtotal float64 `json:"subtotal"`
}

type Breakdown struct {
	Junior CategoryBreakdown `json:"junior"`
	Middle CategoryBreakdown `json:"middle"`
	Senior CategoryBreakdown `json:"senior"`
	Staff  CategoryBreakdown `json:"staff"`
}

// Get returns the entry for c.
func (b Breakdown) Get(c Category) CategoryBreakdown {
	switch c {
	case Junior:
		return b.Junior
	case Middle:
		return b.Middle
	case Senior:
		return b.Senior
	default:
		return b.Staff
	}
}

type Coefficients struct {
	Season   float64 `json:"season"`
	Activity float64 `json:"activity"`
}

type Result struct {
	TotalWater   float64      `json:"total_water"`
	BaseTotal    float64      `json:"base_total"`
	Breakdown    Breakdown    `json:"breakdown"`
	Coefficients Coefficients `json:"coefficients"`
	TotalPeople  int          `json:"total_people"`
}

// Calculate computes the daily water volume for req. It is a pure function
// and safe for concurrent use.
func Calculate(req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	ks, _ := SeasonCoefficient(req.Season)
	ka, _ := ActivityCoefficient(req.Activity)

	line := func(c Category) CategoryBreakdown {
		n := req.Count(c)
		return CategoryBreakdown{Count: n, Norm: Norm(c), Subtotal: Round2(float64(n) * Norm(c))}
	}
	breakdown := Breakdown{
		Junior: line(Junior),
		Middle: line(Middle),
		Senior: line(Senior),
		Staff:  line(Staff),
	}
	base := Round2(breakdown.Junior.Subtotal + breakdown.Middle.Subtotal +
		breakdown.Senior.Subtotal + breakdown.Staff.Subtotal)

	total, err := applyCoefficients(base, ks, ka)
	if err != nil {
		return Result{}, err
	}

	return Result{
		TotalWater:   Round2(total),
		BaseTotal:    base,
		Breakdown:    breakdown,
		Coefficients: Coefficients{Season: ks, Activity: ka},
		TotalPeople:  req.TotalPeople(),
	}, nil
}

func applyCoefficients(base, ks, ka float64) (float64, error) {
	out, err := totalExpression.Evaluate(map[string]interface{}{
		"base_total": base,
		"season":     ks,
		"activity":   ka,
	})
	if err != nil {
		return 0, fmt.Errorf("evaluate %q: %w", totalFormula, err)
	}
	v, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("evaluate %q: unexpected result %T", totalFormula, out)
	}
	return v, nil
}

// Round2 rounds x to two decimal places. strconv works on the exact binary
// value and breaks exact ties to even, so 10.125 becomes 10.12.
func Round2(x float64) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 2, 64), 64)
	if err != nil {
		return x
	}
	return v
}
