package engine

import (
	"time"

	"flipcast/server/internal/database"
	"flipcast/server/internal/finance"
	"flipcast/server/internal/models"
)

// RecomputeContext carries the inputs of one recompute as an immutable
// value. Stages derive adjusted copies instead of mutating shared state, so
// every recompute reads like a straight line from inputs to metrics.
type RecomputeContext struct {
	Property                models.PropertyFinancials
	Mortgage                models.MortgageCalculation
	TotalRepairCost         float64
	TotalMonthlyHoldingCost float64
}

func newRecomputeContext(property *models.PropertyFinancials, mortgage *models.MortgageCalculation) RecomputeContext {
	return RecomputeContext{
		Property:                *property,
		Mortgage:                *mortgage,
		TotalRepairCost:         property.TotalRepairCost,
		TotalMonthlyHoldingCost: property.MonthlyHoldingCost,
	}
}

// WithRepairTotal returns a copy with an adjusted repair total.
func (rc RecomputeContext) WithRepairTotal(total float64) RecomputeContext {
	rc.TotalRepairCost = total
	return rc
}

// WithMonthlyHoldingTotal returns a copy with an adjusted monthly holding
// total (holding items plus taxes/12 plus the monthly interest payment).
func (rc RecomputeContext) WithMonthlyHoldingTotal(total float64) RecomputeContext {
	rc.TotalMonthlyHoldingCost = total
	return rc
}

// WithInputs returns a copy with updated user-edited primitives.
func (rc RecomputeContext) WithInputs(holdingPeriodMonths, purchasePrice, afterRepairValue float64) RecomputeContext {
	rc.Property.HoldingPeriodMonths = holdingPeriodMonths
	rc.Property.PurchasePrice = purchasePrice
	rc.Property.AfterRepairValue = afterRepairValue
	return rc
}

// Metrics derives the full metric set from the context.
func (rc RecomputeContext) Metrics() (finance.Metrics, error) {
	return finance.DeriveMetrics(finance.MetricInputs{
		AfterRepairValue:        rc.Property.AfterRepairValue,
		TotalRepairCost:         rc.TotalRepairCost,
		DownPayment:             rc.Mortgage.DownPayment,
		ClosingCosts:            rc.Mortgage.ClosingCosts,
		HoldingPeriodMonths:     rc.Property.HoldingPeriodMonths,
		TotalMonthlyHoldingCost: rc.TotalMonthlyHoldingCost,
	})
}

// persistRecompute derives the metric set and writes all derived fields in
// one statement inside the caller's transaction.
func (e *Engine) persistRecompute(tx *database.Tx, rc RecomputeContext, now time.Time) error {
	metrics, err := rc.Metrics()
	if err != nil {
		return err
	}
	return tx.UpdateDerivedTotals(rc.Property.ID, metrics, now)
}

// taxesOf reads the yearly taxes, treating absent (NULL) as zero for
// holding cost purposes.
func taxesOf(p *models.PropertyFinancials) float64 {
	if p.TaxesYearly == nil {
		return 0
	}
	return *p.TaxesYearly
}
