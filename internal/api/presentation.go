package api

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"flipcast/server/internal/finance"
	"flipcast/server/internal/models"
)

// MortgageView is the formatted mortgage presentation returned to clients.
// All formatting lives here; everything upstream works in raw float64.
type MortgageView struct {
	PropertyID          int64  `json:"property_id"`
	QuotedRate          string `json:"quoted_rate"`
	InterestRateAnnual  string `json:"interest_rate_annual"`
	RateDate            string `json:"rate_date"`
	DownPayment         string `json:"down_payment"`
	DownPaymentPercent  string `json:"down_payment_percent"`
	ClosingCosts        string `json:"closing_costs"`
	ClosingCostsPercent string `json:"closing_costs_percent"`
	BaseLoanAmount      string `json:"base_loan_amount"`
	MonthlyPayment      string `json:"monthly_payment"`
}

func newMortgageView(m *models.MortgageCalculation, purchasePrice float64) MortgageView {
	view := MortgageView{
		PropertyID:         m.PropertyID,
		QuotedRate:         formatPercent(m.InterestRate),
		InterestRateAnnual: formatPercent(m.InterestRateAnnual),
		RateDate:           formatRateDate(m.InsertedAt),
		DownPayment:        formatCurrency(m.DownPayment),
		ClosingCosts:       formatCurrency(m.ClosingCosts),
		BaseLoanAmount:     formatCurrency(m.BaseLoanAmount),
		MonthlyPayment:     formatCurrency(m.InterestPaymentMonthly),
	}
	if pct, err := finance.PercentFromAmount(m.DownPayment, purchasePrice); err == nil {
		view.DownPaymentPercent = formatPercent(pct)
	}
	if pct, err := finance.PercentFromAmount(m.ClosingCosts, purchasePrice); err == nil {
		view.ClosingCostsPercent = formatPercent(pct)
	}
	return view
}

// formatCurrency renders a dollar amount with thousands separators and two
// decimal places, e.g. "$1,400.00".
func formatCurrency(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	cents := int64(math.Round(v * 100))
	whole := cents / 100
	frac := cents % 100

	digits := strconv.FormatInt(whole, 10)
	grouped := ""
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped += ","
		}
		grouped += string(d)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, grouped, frac)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// formatRateDate renders when a rate was captured, MM-DD-YYYY.
func formatRateDate(t time.Time) string {
	return t.Format("01-02-2006")
}
