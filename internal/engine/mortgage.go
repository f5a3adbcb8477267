package engine

import (
	"time"

	"flipcast/server/internal/database"
	"flipcast/server/internal/finance"
	"flipcast/server/internal/freshness"
	"flipcast/server/internal/models"
	"flipcast/server/internal/providers/ratesapi"
)

// resolveAssumptions returns fresh default mortgage assumptions for a
// property: the quoted central bank rate and the effective annual rate
// derived from the total interest a standard 30-year loan would pay.
func (e *Engine) resolveAssumptions(tx *database.Tx, property *models.PropertyFinancials, now time.Time) (*models.DefaultMortgageAssumptions, error) {
	assumptions, refreshed, err := freshness.GetOrRefresh(
		func(since time.Time) (*models.DefaultMortgageAssumptions, error) {
			return tx.GetDefaultAssumptions(property.ID, since)
		},
		func() (*models.DefaultMortgageAssumptions, error) {
			return e.fetchAssumptions(tx, property, now)
		},
		now, freshness.Window,
	)
	if err != nil {
		return nil, err
	}
	if refreshed {
		e.logger.WithField("property_id", property.ID).Info("Refreshed mortgage assumptions")
	}
	return assumptions, nil
}

func (e *Engine) fetchAssumptions(tx *database.Tx, property *models.PropertyFinancials, now time.Time) (*models.DefaultMortgageAssumptions, error) {
	rate, err := e.rates.GetCentralBankRate(ratesapi.DefaultCountry)
	if err != nil {
		e.logger.WithError(err).Error("Central bank rate lookup failed")
		return nil, ErrProviderUnavailable
	}

	downPayment := finance.DefaultDownPayment(property.PurchasePrice)
	baseLoan := finance.BaseLoanAmount(property.PurchasePrice, downPayment)

	totalInterest, err := e.rates.GetTotalInterestPaid(baseLoan, rate, finance.DefaultLoanTermYears, downPayment)
	if err != nil {
		e.logger.WithError(err).WithField("property_id", property.ID).Error("Amortization lookup failed")
		return nil, ErrProviderUnavailable
	}

	return tx.InsertDefaultAssumptions(&models.DefaultMortgageAssumptions{
		PropertyID:         property.ID,
		InterestRate:       rate,
		BaseLoanAmount:     baseLoan,
		InterestRateAnnual: finance.EffectiveAnnualRate(totalInterest, baseLoan, finance.DefaultLoanTermYears),
	}, now)
}

// resolveCalculation returns the fresh mortgage calculation for a property,
// deriving a new one from the current assumptions when the cached row is
// stale or absent. No provider calls happen here.
func (e *Engine) resolveCalculation(tx *database.Tx, property *models.PropertyFinancials, assumptions *models.DefaultMortgageAssumptions, now time.Time) (*models.MortgageCalculation, error) {
	calc, refreshed, err := freshness.GetOrRefresh(
		func(since time.Time) (*models.MortgageCalculation, error) {
			return tx.GetMortgageCalculation(property.ID, since)
		},
		func() (*models.MortgageCalculation, error) {
			rateMonthly, decimalMonthly, paymentMonthly := finance.MonthlyFigures(
				assumptions.InterestRateAnnual, assumptions.BaseLoanAmount)
			return tx.InsertMortgageCalculation(&models.MortgageCalculation{
				PropertyID:             property.ID,
				InterestRate:           assumptions.InterestRate,
				DownPayment:            finance.DefaultDownPayment(property.PurchasePrice),
				BaseLoanAmount:         assumptions.BaseLoanAmount,
				ClosingCosts:           finance.DefaultClosingCosts(property.PurchasePrice),
				InterestRateAnnual:     assumptions.InterestRateAnnual,
				InterestRateMonthly:    rateMonthly,
				InterestDecimalMonthly: decimalMonthly,
				InterestPaymentMonthly: paymentMonthly,
			}, now)
		},
		now, freshness.Window,
	)
	if err != nil {
		return nil, err
	}
	if refreshed {
		e.logger.WithField("property_id", property.ID).Info("Refreshed mortgage calculation")
	}
	return calc, nil
}

// appliedTerms derives the next mortgage calculation from the current one
// with the requested down payment / closing cost edits applied. An amount
// edit wins over a percentage edit for the same term.
func appliedTerms(property *models.PropertyFinancials, current *models.MortgageCalculation, update MortgageTermsUpdate) *models.MortgageCalculation {
	downPayment := current.DownPayment
	closingCosts := current.ClosingCosts

	switch {
	case update.DownPayment != nil:
		downPayment = *update.DownPayment
	case update.DownPaymentPercent != nil:
		downPayment = finance.AmountFromPercent(property.PurchasePrice, *update.DownPaymentPercent)
	}
	switch {
	case update.ClosingCosts != nil:
		closingCosts = *update.ClosingCosts
	case update.ClosingCostsPercent != nil:
		closingCosts = finance.AmountFromPercent(property.PurchasePrice, *update.ClosingCostsPercent)
	}

	baseLoan := finance.BaseLoanAmount(property.PurchasePrice, downPayment)
	rateMonthly, decimalMonthly, paymentMonthly := finance.MonthlyFigures(current.InterestRateAnnual, baseLoan)
	return &models.MortgageCalculation{
		PropertyID:             property.ID,
		InterestRate:           current.InterestRate,
		DownPayment:            downPayment,
		BaseLoanAmount:         baseLoan,
		ClosingCosts:           closingCosts,
		InterestRateAnnual:     current.InterestRateAnnual,
		InterestRateMonthly:    rateMonthly,
		InterestDecimalMonthly: decimalMonthly,
		InterestPaymentMonthly: paymentMonthly,
	}
}

// resolveMortgage runs the two mortgage gates in their fixed order.
func (e *Engine) resolveMortgage(tx *database.Tx, property *models.PropertyFinancials, now time.Time) (*models.MortgageCalculation, error) {
	assumptions, err := e.resolveAssumptions(tx, property, now)
	if err != nil {
		return nil, err
	}
	return e.resolveCalculation(tx, property, assumptions, now)
}
