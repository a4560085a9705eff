// server/internal/api/handlers/tour_handler.go
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"freight-exchange-api-server/internal/matching"
	"freight-exchange-api-server/internal/models"
	"freight-exchange-api-server/internal/s3"
	"freight-exchange-api-server/internal/tracking"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TourHandler struct {
	Engine   *matching.Engine
	Uploader *s3.Uploader
	Trail    tracking.Store
}

// ConfirmTour is the carrier's commitment to run the tour.
func (h *TourHandler) ConfirmTour(c *gin.Context) {
	tour, err := h.Engine.ConfirmTour(context.Background(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tour)
}

type DeclineTourPayload struct {
	Reason string `json:"reason"`
}

// DeclineTour hands the shipment back to the board before pickup.
func (h *TourHandler) DeclineTour(c *gin.Context) {
	var payload DeclineTourPayload
	if err := c.ShouldBindJSON(&payload); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tour, err := h.Engine.DeclineTour(context.Background(), c.GetString("user_id"), c.Param("id"), payload.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tour)
}

// ConfirmPickup marks the cargo as collected.
func (h *TourHandler) ConfirmPickup(c *gin.Context) {
	tour, err := h.Engine.ConfirmPickup(context.Background(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tour)
}

// ConfirmDelivery completes the tour and captures the escrow transaction.
func (h *TourHandler) ConfirmDelivery(c *gin.Context) {
	tour, err := h.Engine.ConfirmDelivery(context.Background(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tour)
}

// UploadProof attaches a pickup or delivery photo to the tour.
func (h *TourHandler) UploadProof(c *gin.Context) {
	stage := c.Param("stage")
	if stage != "pickup" && stage != "delivery" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stage must be pickup or delivery"})
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	tourID := c.Param("id")
	mediaID := fmt.Sprintf("MED-%s", strings.ToUpper(uuid.New().String()[:8]))
	objectKey := fmt.Sprintf("tours/%s/%s/%s-%s", tourID, stage, mediaID, fileHeader.Filename)
	contentType := fileHeader.Header.Get("Content-Type")

	url, err := h.Uploader.UploadFile(context.Background(), file, objectKey, contentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload photo"})
		return
	}

	media := models.MediaPointer{
		ID:       mediaID,
		URL:      url,
		FileName: fileHeader.Filename,
		FileType: contentType,
	}
	if err := h.Engine.AttachProof(context.Background(), c.GetString("user_id"), tourID, stage, media); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, media)
}

type PostLocationPayload struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
	SpeedKMH  float64 `json:"speedKMH"`
}

// PostLocation records a GPS sample for an active tour.
func (h *TourHandler) PostLocation(c *gin.Context) {
	var payload PostLocationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tourID := c.Param("id")
	tour, err := h.Engine.GetTour(context.Background(), tourID)
	if err != nil {
		respondError(c, err)
		return
	}
	if tour.CarrierID != c.GetString("user_id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the tour's carrier can report positions"})
		return
	}
	if tour.Status != models.TourConfirmed && tour.Status != models.TourPickedUp {
		c.JSON(http.StatusConflict, gin.H{"error": "Tour is not active"})
		return
	}

	position := tracking.Position{
		Latitude:   payload.Latitude,
		Longitude:  payload.Longitude,
		SpeedKMH:   payload.SpeedKMH,
		RecordedAt: time.Now(),
	}
	if err := h.Trail.Append(context.Background(), tourID, position); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record position"})
		return
	}

	c.JSON(http.StatusCreated, position)
}

// GetTrail returns the tour's GPS trail to either party.
func (h *TourHandler) GetTrail(c *gin.Context) {
	tourID := c.Param("id")
	tour, err := h.Engine.GetTour(context.Background(), tourID)
	if err != nil {
		respondError(c, err)
		return
	}
	userID := c.GetString("user_id")
	if tour.CarrierID != userID && tour.ShipperID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not a party to this tour"})
		return
	}

	trail, err := h.Trail.Trail(context.Background(), tourID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read trail"})
		return
	}
	c.JSON(http.StatusOK, trail)
}

// GetTour returns one tour by id, to either party.
func (h *TourHandler) GetTour(c *gin.Context) {
	tour, err := h.Engine.GetTour(context.Background(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	userID := c.GetString("user_id")
	if tour.CarrierID != userID && tour.ShipperID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not a party to this tour"})
		return
	}
	c.JSON(http.StatusOK, tour)
}

// GetMyTours lists tours by the caller's role: carriers see the tours they
// run, shippers the tours covering their shipments.
func (h *TourHandler) GetMyTours(c *gin.Context) {
	userID := c.GetString("user_id")
	var (
		tours []models.Tour
		err   error
	)
	if c.GetString("user_role") == models.RoleCarrier {
		tours, err = h.Engine.ListMyTours(context.Background(), userID)
	} else {
		tours, err = h.Engine.ListToursForShipper(context.Background(), userID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tours)
}

// GetTransaction returns the escrow transaction of a tour.
func (h *TourHandler) GetTransaction(c *gin.Context) {
	tourID := c.Param("id")
	tour, err := h.Engine.GetTour(context.Background(), tourID)
	if err != nil {
		respondError(c, err)
		return
	}
	userID := c.GetString("user_id")
	if tour.CarrierID != userID && tour.ShipperID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not a party to this tour"})
		return
	}

	txn, err := h.Engine.GetTransactionByTour(context.Background(), tourID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}
