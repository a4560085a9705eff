// server/internal/api/handlers/offer_handler.go
package handlers

import (
	"context"
	"net/http"

	"freight-exchange-api-server/internal/matching"

	"github.com/gin-gonic/gin"
)

type OfferHandler struct {
	Engine *matching.Engine
}

type CreateOfferPayload struct {
	ShipmentID string  `json:"shipmentID" binding:"required"`
	VehicleID  string  `json:"vehicleID" binding:"required"`
	PriceRSD   float64 `json:"priceRSD" binding:"required"`
	Note       string  `json:"note"`
}

// CreateOffer places the authenticated carrier's bid on a published
// shipment. One bid per carrier per shipment.
func (h *OfferHandler) CreateOffer(c *gin.Context) {
	var payload CreateOfferPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	offer, err := h.Engine.CreateOffer(context.Background(), c.GetString("user_id"), matching.CreateOfferInput{
		ShipmentID: payload.ShipmentID,
		VehicleID:  payload.VehicleID,
		PriceRSD:   payload.PriceRSD,
		Note:       payload.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, offer)
}

// AcceptOffer is the shipper's pick: it creates the tour and the escrow
// transaction and rejects every sibling offer.
func (h *OfferHandler) AcceptOffer(c *gin.Context) {
	tour, err := h.Engine.AcceptOffer(context.Background(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tour)
}

// DeclineOffer rejects one pending offer.
func (h *OfferHandler) DeclineOffer(c *gin.Context) {
	if err := h.Engine.DeclineOffer(context.Background(), c.GetString("user_id"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Offer declined"})
}

// GetOffersForShipment lists the offers on one of the shipper's shipments.
func (h *OfferHandler) GetOffersForShipment(c *gin.Context) {
	offers, err := h.Engine.ListOffersForShipment(context.Background(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offers)
}

// GetMyOffers lists the authenticated carrier's bids.
func (h *OfferHandler) GetMyOffers(c *gin.Context) {
	offers, err := h.Engine.ListMyOffers(context.Background(), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offers)
}
