package engine

import (
	"time"

	"github.com/sirupsen/logrus"

	"flipcast/server/internal/database"
	"flipcast/server/internal/models"
	"flipcast/server/internal/providers/rentcast"
)

// MarketSource supplies property market data: value estimates, public
// records and active sale listings.
type MarketSource interface {
	GetValueEstimate(address string) (*rentcast.ValueEstimate, error)
	GetRecords(address string) (*rentcast.PropertyRecords, error)
	GetSaleListing(address string) (*rentcast.SaleListing, error)
}

// RateSource supplies central bank rates and amortization totals.
type RateSource interface {
	GetCentralBankRate(country string) (float64, error)
	GetTotalInterestPaid(loanAmount, ratePct float64, termYears float64, downPayment float64) (float64, error)
}

// Engine coordinates property acquisition, recomputation and persistence.
// Every operation runs in a single transaction: either all derived fields
// are written or none are.
type Engine struct {
	db     *database.Database
	market MarketSource
	rates  RateSource
	logger *logrus.Logger
	now    func() time.Time
}

// New creates an Engine. A nil logger falls back to the standard logger.
func New(db *database.Database, market MarketSource, rates RateSource, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Engine{
		db:     db,
		market: market,
		rates:  rates,
		logger: logger,
		now:    time.Now,
	}
}

// Snapshot is the full state of a property returned by engine operations.
type Snapshot struct {
	Property     models.PropertyFinancials
	RepairItems  []models.LineItem
	HoldingItems []models.LineItem
	Mortgage     *models.MortgageCalculation
}

func (e *Engine) snapshot(tx *database.Tx, propertyID int64) (*Snapshot, error) {
	property, err := tx.GetProperty(propertyID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, ErrMissingReference
	}
	repairs, err := tx.ListRepairItems(propertyID)
	if err != nil {
		return nil, err
	}
	holdings, err := tx.ListHoldingItems(propertyID)
	if err != nil {
		return nil, err
	}
	mortgage, err := tx.GetLiveMortgageCalculation(propertyID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Property:     *property,
		RepairItems:  repairs,
		HoldingItems: holdings,
		Mortgage:     mortgage,
	}, nil
}
