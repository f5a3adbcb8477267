// Package rentcast wraps the property data provider: automated valuation,
// property records, and active sale listings.
package rentcast

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when the provider has no row for an address. Only
// the sale-listing lookup tolerates it; everywhere else it is fatal.
var ErrNotFound = errors.New("address not found")

// ErrUnavailable covers transport failures and non-2xx provider responses.
var ErrUnavailable = errors.New("property data provider unavailable")

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *logrus.Logger
}

// ValueEstimate is the automated valuation for an address. PriceRangeHigh
// doubles as the after-repair value estimate.
type ValueEstimate struct {
	Price          float64 `json:"price"`
	PriceRangeHigh float64 `json:"priceRangeHigh"`
}

// TaxYear is one year's property tax total.
type TaxYear struct {
	Total float64 `json:"total"`
}

// PropertyRecords is the public-records row for an address. PropertyTaxes is
// nil when the county reported none.
type PropertyRecords struct {
	FormattedAddress string             `json:"formattedAddress"`
	PropertyType     string             `json:"propertyType"`
	Bedrooms         float64            `json:"bedrooms"`
	Bathrooms        float64            `json:"bathrooms"`
	SquareFootage    float64            `json:"squareFootage"`
	PropertyTaxes    map[string]TaxYear `json:"propertyTaxes"`
}

// SaleListing is an active for-sale listing.
type SaleListing struct {
	FormattedAddress string  `json:"formattedAddress"`
	Price            float64 `json:"price"`
	PropertyType     string  `json:"propertyType"`
	Bedrooms         float64 `json:"bedrooms"`
	Bathrooms        float64 `json:"bathrooms"`
	SquareFootage    float64 `json:"squareFootage"`
}

func NewClient(apiKey string, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return &Client{
		baseURL: "https://api.rentcast.io/v1",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// WithBaseURL points the client at a different endpoint, used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

func (c *Client) get(path string, params url.Values, out interface{}) error {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("path", path).Error("Property data request failed")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.WithFields(logrus.Fields{
			"path":   path,
			"status": resp.StatusCode,
		}).Error("Property data provider returned an error")
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: failed to parse response: %v", ErrUnavailable, err)
	}
	return nil
}

// GetValueEstimate fetches the automated valuation for an address.
func (c *Client) GetValueEstimate(address string) (*ValueEstimate, error) {
	params := url.Values{
		"address":   []string{address},
		"limit":     []string{"1"},
		"compCount": []string{"5"},
	}

	var estimate ValueEstimate
	if err := c.get("/avm/value", params, &estimate); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"address": address,
		"price":   estimate.Price,
	}).Info("Fetched value estimate")
	return &estimate, nil
}

// GetRecords fetches the public-records row for an address.
func (c *Client) GetRecords(address string) (*PropertyRecords, error) {
	params := url.Values{
		"address": []string{address},
		"limit":   []string{"1"},
	}

	var records []PropertyRecords
	if err := c.get("/properties", params, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}

	c.logger.WithField("address", records[0].FormattedAddress).Info("Fetched property records")
	return &records[0], nil
}

// GetSaleListing fetches the active listing for an address. Callers treat a
// failure here as recoverable.
func (c *Client) GetSaleListing(address string) (*SaleListing, error) {
	params := url.Values{
		"address": []string{address},
		"limit":   []string{"1"},
	}

	var listings []SaleListing
	if err := c.get("/listings/sale", params, &listings); err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return nil, ErrNotFound
	}

	c.logger.WithFields(logrus.Fields{
		"address": listings[0].FormattedAddress,
		"price":   listings[0].Price,
	}).Info("Fetched sale listing")
	return &listings[0], nil
}
