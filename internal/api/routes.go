package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"flipcast/server/internal/engine"
)

func SetupRoutes(router *gin.Engine, eng *engine.Engine, logger *logrus.Logger) {
	handler := NewHandler(eng, logger)

	api := router.Group("/api")
	{
		properties := api.Group("/properties")
		{
			properties.GET("", handler.ListProperties)
			properties.POST("", handler.CreateProperty)
			properties.PUT("", handler.UpdateProperty)
			properties.GET("/filtered/:orderBy/:arrange", handler.ListPropertiesFiltered)
			properties.PUT("/taxes", handler.ResetTaxes)
			properties.POST("/repairItem", handler.AddRepairItem)
			properties.DELETE("/repairItem/:id", handler.DeleteRepairItem)
			properties.POST("/holdingItem", handler.AddHoldingItem)
			properties.DELETE("/holdingItem/:id", handler.DeleteHoldingItem)
			properties.GET("/:id", handler.GetProperty)
			properties.DELETE("/:id", handler.DeleteProperty)
			properties.PUT("/:id/restore", handler.RestoreDefaults)
		}

		mortgage := api.Group("/mortgageCalculator")
		{
			mortgage.POST("/:propertyId", handler.GetMortgageCalculations)
			mortgage.PUT("/:propertyId", handler.UpdateMortgageTerms)
		}

		defaults := api.Group("/defaults")
		{
			defaults.GET("", handler.GetDefaults)
			defaults.PUT("/holdingPeriod", handler.UpdateDefaultHoldingPeriod)
			defaults.POST("/repairItem", handler.AddDefaultRepairItem)
			defaults.DELETE("/repairItem/:id", handler.DeleteDefaultRepairItem)
			defaults.POST("/holdingItem", handler.AddDefaultHoldingItem)
			defaults.DELETE("/holdingItem/:id", handler.DeleteDefaultHoldingItem)
		}
	}
}
