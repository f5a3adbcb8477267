package finance

import "fmt"

// The formula library is pure and does no rounding; rounding is a
// presentation concern. Inputs are exact currency values as float64.

// UpfrontCost is everything due at acquisition.
func UpfrontCost(totalRepairCost, downPayment, closingCosts float64) float64 {
	return totalRepairCost + downPayment + closingCosts
}

// TotalHoldingCost is the recurring carrying cost over the holding period.
func TotalHoldingCost(holdingPeriodMonths, totalMonthlyHoldingCost float64) float64 {
	return totalMonthlyHoldingCost * holdingPeriodMonths
}

// TotalCost composes upfront and holding cost.
func TotalCost(totalRepairCost, downPayment, closingCosts, holdingPeriodMonths, totalMonthlyHoldingCost float64) float64 {
	return UpfrontCost(totalRepairCost, downPayment, closingCosts) +
		TotalHoldingCost(holdingPeriodMonths, totalMonthlyHoldingCost)
}

// Profit is the after-repair value less total cost.
func Profit(afterRepairValue, totalRepairCost, downPayment, closingCosts, holdingPeriodMonths, totalMonthlyHoldingCost float64) float64 {
	return afterRepairValue - TotalCost(totalRepairCost, downPayment, closingCosts, holdingPeriodMonths, totalMonthlyHoldingCost)
}

// MonthlyProfit divides profit across the holding period. A zero holding
// period is rejected rather than producing Inf/NaN.
func MonthlyProfit(afterRepairValue, totalRepairCost, downPayment, closingCosts, holdingPeriodMonths, totalMonthlyHoldingCost float64) (float64, error) {
	if holdingPeriodMonths == 0 {
		return 0, fmt.Errorf("%w: holding period of zero months divides profit by zero", ErrInvalidNumericInput)
	}
	return Profit(afterRepairValue, totalRepairCost, downPayment, closingCosts, holdingPeriodMonths, totalMonthlyHoldingCost) / holdingPeriodMonths, nil
}

// MetricInputs are the primitive values a recompute feeds the library.
type MetricInputs struct {
	AfterRepairValue        float64
	TotalRepairCost         float64
	DownPayment             float64
	ClosingCosts            float64
	HoldingPeriodMonths     float64
	TotalMonthlyHoldingCost float64
}

// Metrics is the full derived set. It is produced all-or-nothing so callers
// never persist a partial recompute.
type Metrics struct {
	TotalRepairCost         float64
	TotalUpfrontCost        float64
	TotalMonthlyHoldingCost float64
	TotalHoldingCost        float64
	TotalCost               float64
	Profit                  float64
	MonthlyProfit           float64
}

// DeriveMetrics computes every derived financial field from the primitives.
func DeriveMetrics(in MetricInputs) (Metrics, error) {
	monthly, err := MonthlyProfit(in.AfterRepairValue, in.TotalRepairCost, in.DownPayment,
		in.ClosingCosts, in.HoldingPeriodMonths, in.TotalMonthlyHoldingCost)
	if err != nil {
		return Metrics{}, err
	}

	return Metrics{
		TotalRepairCost:         in.TotalRepairCost,
		TotalUpfrontCost:        UpfrontCost(in.TotalRepairCost, in.DownPayment, in.ClosingCosts),
		TotalMonthlyHoldingCost: in.TotalMonthlyHoldingCost,
		TotalHoldingCost:        TotalHoldingCost(in.HoldingPeriodMonths, in.TotalMonthlyHoldingCost),
		TotalCost:               TotalCost(in.TotalRepairCost, in.DownPayment, in.ClosingCosts, in.HoldingPeriodMonths, in.TotalMonthlyHoldingCost),
		Profit:                  Profit(in.AfterRepairValue, in.TotalRepairCost, in.DownPayment, in.ClosingCosts, in.HoldingPeriodMonths, in.TotalMonthlyHoldingCost),
		MonthlyProfit:           monthly,
	}, nil
}
