// Package ratesapi wraps the interest-rate and amortization calculator
// provider (API Ninjas).
package ratesapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrUnavailable covers transport failures and non-2xx provider responses.
var ErrUnavailable = errors.New("rates provider unavailable")

// DefaultCountry selects which central bank's rate is quoted.
const DefaultCountry = "United States"

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *logrus.Logger
}

type interestRateResponse struct {
	CentralBankRates []struct {
		RatePct float64 `json:"rate_pct"`
	} `json:"central_bank_rates"`
}

type mortgageCalculatorResponse struct {
	TotalInterestPaid float64 `json:"total_interest_paid"`
}

func NewClient(apiKey string, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return &Client{
		baseURL: "https://api.api-ninjas.com/v1",
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
		c.logger.WithError(err).WithField("path", path).Error("Rates request failed")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.WithFields(logrus.Fields{
			"path":   path,
			"status": resp.StatusCode,
		}).Error("Rates provider returned an error")
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

// GetCentralBankRate returns the quoted central bank rate in percent.
func (c *Client) GetCentralBankRate(country string) (float64, error) {
	if country == "" {
		country = DefaultCountry
	}

	var parsed interestRateResponse
	err := c.get("/interestrate", url.Values{"country": []string{country}}, &parsed)
	if err != nil {
		return 0, err
	}
	if len(parsed.CentralBankRates) == 0 {
		return 0, fmt.Errorf("%w: no central bank rate for %q", ErrUnavailable, country)
	}

	rate := parsed.CentralBankRates[0].RatePct
	c.logger.WithFields(logrus.Fields{
		"country":  country,
		"rate_pct": rate,
	}).Info("Fetched central bank rate")
	return rate, nil
}

// GetTotalInterestPaid runs the amortization calculator and returns the total
// interest paid over the life of the loan.
func (c *Client) GetTotalInterestPaid(loanAmount, ratePct float64, termYears float64, downPayment float64) (float64, error) {
	params := url.Values{
		"loan_amount":    []string{strconv.FormatFloat(loanAmount, 'f', -1, 64)},
		"interest_rate":  []string{strconv.FormatFloat(ratePct, 'f', -1, 64)},
		"duration_years": []string{strconv.FormatFloat(termYears, 'f', -1, 64)},
		"downpayment":    []string{strconv.FormatFloat(downPayment, 'f', -1, 64)},
	}

	var parsed mortgageCalculatorResponse
	if err := c.get("/mortgagecalculator", params, &parsed); err != nil {
		return 0, err
	}

	c.logger.WithFields(logrus.Fields{
		"loan_amount":         loanAmount,
		"total_interest_paid": parsed.TotalInterestPaid,
	}).Info("Fetched amortization result")
	return parsed.TotalInterestPaid, nil
}
