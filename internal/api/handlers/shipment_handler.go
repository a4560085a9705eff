// server/internal/api/handlers/shipment_handler.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"freight-exchange-api-server/internal/matching"
	"freight-exchange-api-server/internal/models"
	"freight-exchange-api-server/internal/routing"

	"github.com/gin-gonic/gin"
)

type ShipmentHandler struct {
	Engine *matching.Engine
	Routes *routing.Engine
}

type CreateShipmentPayload struct {
	Pickup         models.Address `json:"pickup" binding:"required"`
	Delivery       models.Address `json:"delivery" binding:"required"`
	Cargo          models.Cargo   `json:"cargo" binding:"required"`
	BudgetRSD      float64        `json:"budgetRSD"`
	PickupDeadline time.Time      `json:"pickupDeadline"`
	DeliverBy      time.Time      `json:"deliverBy"`
}

// CreateShipment records a draft shipment with route suggestions, an
// advisory price estimate and packaging advice.
func (h *ShipmentHandler) CreateShipment(c *gin.Context) {
	var payload CreateShipmentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shipment, err := h.Engine.CreateShipment(context.Background(), c.GetString("user_id"), matching.CreateShipmentInput{
		Pickup:         payload.Pickup,
		Delivery:       payload.Delivery,
		Cargo:          payload.Cargo,
		BudgetRSD:      payload.BudgetRSD,
		PickupDeadline: payload.PickupDeadline,
		DeliverBy:      payload.DeliverBy,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, shipment)
}

// PublishShipment puts a draft shipment on the freight board.
func (h *ShipmentHandler) PublishShipment(c *gin.Context) {
	shipment, err := h.Engine.PublishShipment(context.Background(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shipment)
}

// CancelShipment withdraws a published shipment.
func (h *ShipmentHandler) CancelShipment(c *gin.Context) {
	shipment, err := h.Engine.CancelShipment(context.Background(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shipment)
}

// GetShipment returns one shipment by id.
func (h *ShipmentHandler) GetShipment(c *gin.Context) {
	shipment, err := h.Engine.GetShipment(context.Background(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shipment)
}

// GetMyShipments lists the authenticated shipper's shipments.
func (h *ShipmentHandler) GetMyShipments(c *gin.Context) {
	shipments, err := h.Engine.ListMyShipments(context.Background(), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shipments)
}

// GetOpenShipments lists the published freight board for carriers.
func (h *ShipmentHandler) GetOpenShipments(c *gin.Context) {
	shipments, err := h.Engine.ListOpenShipments(context.Background())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shipments)
}

// SuggestRoutes returns ranked route candidates between two catalog cities
// without creating anything.
func (h *ShipmentHandler) SuggestRoutes(c *gin.Context) {
	pickup := c.Query("pickup")
	delivery := c.Query("delivery")
	if pickup == "" || delivery == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pickup and delivery query parameters are required"})
		return
	}
	c.JSON(http.StatusOK, h.Routes.Suggest(pickup, delivery, 5))
}
