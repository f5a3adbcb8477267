package finance

// Fixed loan policy. Down payment and closing costs default to flat fractions
// of the purchase price unless the user has edited them.
const (
	DownPaymentRatio     = 0.20
	ClosingCostRatio     = 0.03
	DefaultLoanTermYears = 30
)

// Mortgage holds the full derived mortgage figure set for a property.
type Mortgage struct {
	InterestRate           float64 // quoted central-bank rate, percent
	DownPayment            float64
	BaseLoanAmount         float64
	ClosingCosts           float64
	InterestRateAnnual     float64 // effective annual rate, percent
	InterestRateMonthly    float64
	InterestDecimalMonthly float64
	InterestPaymentMonthly float64
}

// DefaultDownPayment applies the flat down-payment policy.
func DefaultDownPayment(purchasePrice float64) float64 {
	return purchasePrice * DownPaymentRatio
}

// DefaultClosingCosts applies the flat closing-cost policy.
func DefaultClosingCosts(purchasePrice float64) float64 {
	return purchasePrice * ClosingCostRatio
}

// BaseLoanAmount is the financed portion of the purchase.
func BaseLoanAmount(purchasePrice, downPayment float64) float64 {
	return purchasePrice - downPayment
}

// EffectiveAnnualRate re-derives the annual rate from the total interest the
// amortization provider reports, rather than trusting the quoted rate. The
// daily round trip through termYears*365 is kept as-is: downstream figures
// depend on this exact sequence. Rounded to 3 decimals.
func EffectiveAnnualRate(totalInterestPaid, baseLoanAmount float64, termYears float64) float64 {
	return Round(((totalInterestPaid/baseLoanAmount)/(termYears*365))*365*100, 3)
}

// MonthlyFigures derives the monthly rate, its decimal form, and the monthly
// interest payment from an effective annual rate. Later values depend on
// earlier ones; the order is fixed.
func MonthlyFigures(interestRateAnnual, baseLoanAmount float64) (rateMonthly, decimalMonthly, paymentMonthly float64) {
	rateMonthly = interestRateAnnual / 12
	decimalMonthly = rateMonthly / 100
	paymentMonthly = decimalMonthly * baseLoanAmount
	return rateMonthly, decimalMonthly, paymentMonthly
}

// BuildMortgage assembles the derived mortgage snapshot from the purchase
// price, the quoted rate, and the amortization provider's total interest.
func BuildMortgage(purchasePrice, quotedRate, totalInterestPaid float64, termYears float64) Mortgage {
	downPayment := DefaultDownPayment(purchasePrice)
	closingCosts := DefaultClosingCosts(purchasePrice)
	baseLoan := BaseLoanAmount(purchasePrice, downPayment)
	annual := EffectiveAnnualRate(totalInterestPaid, baseLoan, termYears)
	rateMonthly, decimalMonthly, paymentMonthly := MonthlyFigures(annual, baseLoan)

	return Mortgage{
		InterestRate:           quotedRate,
		DownPayment:            downPayment,
		BaseLoanAmount:         baseLoan,
		ClosingCosts:           closingCosts,
		InterestRateAnnual:     annual,
		InterestRateMonthly:    rateMonthly,
		InterestDecimalMonthly: decimalMonthly,
		InterestPaymentMonthly: paymentMonthly,
	}
}

// AmountFromPercent converts a user-edited percentage into its dollar amount.
// Dollar amounts are whole dollars.
func AmountFromPercent(purchasePrice, percent float64) float64 {
	return Round(purchasePrice*(percent/100), 0)
}

// PercentFromAmount converts a user-edited dollar amount into its percentage
// of the purchase price: the ratio is rounded to 4 decimals before scaling,
// matching the precision the amount/percentage pair is stored with.
func PercentFromAmount(amount, purchasePrice float64) (float64, error) {
	if purchasePrice == 0 {
		return 0, ErrInvalidNumericInput
	}
	return Round(amount/purchasePrice, 4) * 100, nil
}
