package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"flipcast/server/internal/engine"
	"flipcast/server/internal/finance"
)

type Handler struct {
	engine *engine.Engine
	logger *logrus.Logger
}

func NewHandler(eng *engine.Engine, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Handler{engine: eng, logger: logger}
}

type CreatePropertyRequest struct {
	Address   string `json:"address" binding:"required"`
	AddressID string `json:"addressId" binding:"required"`
}

type UpdatePropertyRequest struct {
	ID               int64   `json:"id" binding:"required"`
	HoldingPeriod    float64 `json:"holdingPeriod"`
	PurchasePrice    string  `json:"purchasePrice"`
	AfterRepairValue string  `json:"afterRepairValue"`
}

type LineItemRequest struct {
	PropertyID int64  `json:"propertyId" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Cost       string `json:"cost" binding:"required"`
}

type ResetTaxesRequest struct {
	PropertyID int64 `json:"propertyId" binding:"required"`
}

type MortgageTermsRequest struct {
	DownPayment         *string `json:"downPayment"`
	DownPaymentPercent  *string `json:"downPaymentPercentage"`
	ClosingCosts        *string `json:"closingCosts"`
	ClosingCostsPercent *string `json:"closingCostsPercentage"`
}

type HoldingPeriodRequest struct {
	HoldingPeriod float64 `json:"holdingPeriod" binding:"required"`
}

type DefaultItemRequest struct {
	Name string `json:"name" binding:"required"`
	Cost string `json:"cost" binding:"required"`
}

// userID reads the authenticated user from the X-User-ID header. Session
// handling itself lives upstream; a missing header maps to the single-user
// default.
func userID(c *gin.Context) int64 {
	id, err := strconv.ParseInt(c.GetHeader("X-User-ID"), 10, 64)
	if err != nil || id <= 0 {
		return 1
	}
	return id
}

// respondError logs the failure detail and answers with a generic message.
func (h *Handler) respondError(c *gin.Context, err error, msg string) {
	h.logger.WithError(err).Error(msg)
	switch {
	case errors.Is(err, engine.ErrMissingReference):
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
	case errors.Is(err, finance.ErrInvalidNumericInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
	case errors.Is(err, engine.ErrProviderUnavailable), errors.Is(err, engine.ErrMissingTaxYear):
		c.JSON(http.StatusBadGateway, gin.H{"error": msg})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) ListProperties(c *gin.Context) {
	snapshots, err := h.engine.ListProperties(userID(c))
	if err != nil {
		h.respondError(c, err, "Failed to list properties")
		return
	}
	c.JSON(http.StatusOK, snapshots)
}

func (h *Handler) ListPropertiesFiltered(c *gin.Context) {
	snapshots, err := h.engine.ListPropertiesOrdered(userID(c), c.Param("orderBy"), c.Param("arrange"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to list filtered properties")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to list filtered properties"})
		return
	}
	c.JSON(http.StatusOK, snapshots)
}

func (h *Handler) GetProperty(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	snapshot, err := h.engine.GetProperty(id)
	if err != nil {
		h.respondError(c, err, "Failed to get property")
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) CreateProperty(c *gin.Context) {
	var req CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	snapshot, err := h.engine.CreateProperty(req.Address, req.AddressID, userID(c))
	if err != nil {
		h.respondError(c, err, "Failed to create property")
		return
	}
	c.JSON(http.StatusCreated, snapshot)
}

func (h *Handler) UpdateProperty(c *gin.Context) {
	var req UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	purchasePrice, err := finance.ParseCurrency(req.PurchasePrice)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid purchase price"})
		return
	}
	afterRepairValue, err := finance.ParseCurrency(req.AfterRepairValue)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid after repair value"})
		return
	}
	snapshot, err := h.engine.UpdateProperty(req.ID, req.HoldingPeriod, purchasePrice, afterRepairValue)
	if err != nil {
		h.respondError(c, err, "Failed to update property")
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) DeleteProperty(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.engine.DeleteProperty(id); err != nil {
		h.respondError(c, err, "Failed to delete property")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) RestoreDefaults(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	snapshot, err := h.engine.RestoreDefaults(id, userID(c))
	if err != nil {
		h.respondError(c, err, "Failed to restore defaults")
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) ResetTaxes(c *gin.Context) {
	var req ResetTaxesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	snapshot, err := h.engine.ResetTaxes(req.PropertyID)
	if err != nil {
		h.respondError(c, err, "Failed to reset taxes")
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) bindLineItem(c *gin.Context) (*LineItemRequest, float64, bool) {
	var req LineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return nil, 0, false
	}
	cost, err := finance.ParseCurrency(req.Cost)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cost"})
		return nil, 0, false
	}
	return &req, cost, true
}

func (h *Handler) AddRepairItem(c *gin.Context) {
	req, cost, ok := h.bindLineItem(c)
	if !ok {
		return
	}
	snapshot, err := h.engine.AddRepairItem(req.PropertyID, req.Name, cost)
	if err != nil {
		h.respondError(c, err, "Failed to add repair item")
		return
	}
	c.JSON(http.StatusCreated, snapshot)
}

func (h *Handler) DeleteRepairItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	snapshot, err := h.engine.DeleteRepairItem(id)
	if err != nil {
		h.respondError(c, err, "Failed to delete repair item")
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) AddHoldingItem(c *gin.Context) {
	req, cost, ok := h.bindLineItem(c)
	if !ok {
		return
	}
	snapshot, err := h.engine.AddHoldingItem(req.PropertyID, req.Name, cost)
	if err != nil {
		h.respondError(c, err, "Failed to add holding item")
		return
	}
	c.JSON(http.StatusCreated, snapshot)
}

func (h *Handler) DeleteHoldingItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	snapshot, err := h.engine.DeleteHoldingItem(id)
	if err != nil {
		h.respondError(c, err, "Failed to delete holding item")
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) GetMortgageCalculations(c *gin.Context) {
	id, ok := pathID(c, "propertyId")
	if !ok {
		return
	}
	snapshot, err := h.engine.GetProperty(id)
	if err != nil {
		h.respondError(c, err, "Failed to get mortgage calculations")
		return
	}
	if snapshot.Mortgage == nil {
		h.respondError(c, engine.ErrMissingReference, "Failed to get mortgage calculations")
		return
	}
	c.JSON(http.StatusOK, newMortgageView(snapshot.Mortgage, snapshot.Property.PurchasePrice))
}

func (h *Handler) UpdateMortgageTerms(c *gin.Context) {
	id, ok := pathID(c, "propertyId")
	if !ok {
		return
	}
	var req MortgageTermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var update engine.MortgageTermsUpdate
	var err error
	if update.DownPayment, err = parseOptional(req.DownPayment); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid down payment"})
		return
	}
	if update.DownPaymentPercent, err = parseOptional(req.DownPaymentPercent); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid down payment percentage"})
		return
	}
	if update.ClosingCosts, err = parseOptional(req.ClosingCosts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid closing costs"})
		return
	}
	if update.ClosingCostsPercent, err = parseOptional(req.ClosingCostsPercent); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid closing costs percentage"})
		return
	}

	snapshot, err := h.engine.UpdateMortgageTerms(id, update)
	if err != nil {
		h.respondError(c, err, "Failed to update mortgage terms")
		return
	}
	c.JSON(http.StatusOK, newMortgageView(snapshot.Mortgage, snapshot.Property.PurchasePrice))
}

func parseOptional(s *string) (*float64, error) {
	if s == nil {
		return nil, nil
	}
	v, err := finance.ParseCurrency(*s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (h *Handler) GetDefaults(c *gin.Context) {
	defaults, err := h.engine.GetUserDefaults(userID(c))
	if err != nil {
		h.respondError(c, err, "Failed to get default settings")
		return
	}
	c.JSON(http.StatusOK, defaults)
}

func (h *Handler) UpdateDefaultHoldingPeriod(c *gin.Context) {
	var req HoldingPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	defaults, err := h.engine.SetDefaultHoldingPeriod(userID(c), req.HoldingPeriod)
	if err != nil {
		h.respondError(c, err, "Failed to update default holding period")
		return
	}
	c.JSON(http.StatusOK, defaults)
}

func (h *Handler) bindDefaultItem(c *gin.Context) (*DefaultItemRequest, float64, bool) {
	var req DefaultItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return nil, 0, false
	}
	cost, err := finance.ParseCurrency(req.Cost)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cost"})
		return nil, 0, false
	}
	return &req, cost, true
}

func (h *Handler) AddDefaultRepairItem(c *gin.Context) {
	req, cost, ok := h.bindDefaultItem(c)
	if !ok {
		return
	}
	defaults, err := h.engine.AddDefaultRepairItem(userID(c), req.Name, cost)
	if err != nil {
		h.respondError(c, err, "Failed to add default repair item")
		return
	}
	c.JSON(http.StatusCreated, defaults)
}

func (h *Handler) AddDefaultHoldingItem(c *gin.Context) {
	req, cost, ok := h.bindDefaultItem(c)
	if !ok {
		return
	}
	defaults, err := h.engine.AddDefaultHoldingItem(userID(c), req.Name, cost)
	if err != nil {
		h.respondError(c, err, "Failed to add default holding item")
		return
	}
	c.JSON(http.StatusCreated, defaults)
}

func (h *Handler) DeleteDefaultRepairItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	defaults, err := h.engine.DeleteDefaultRepairItem(userID(c), id)
	if err != nil {
		h.respondError(c, err, "Failed to delete default repair item")
		return
	}
	c.JSON(http.StatusOK, defaults)
}

func (h *Handler) DeleteDefaultHoldingItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	defaults, err := h.engine.DeleteDefaultHoldingItem(userID(c), id)
	if err != nil {
		h.respondError(c, err, "Failed to delete default holding item")
		return
	}
	c.JSON(http.StatusOK, defaults)
}
