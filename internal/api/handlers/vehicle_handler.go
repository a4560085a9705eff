// server/internal/api/handlers/vehicle_handler.go
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"freight-exchange-api-server/internal/matching"
	"freight-exchange-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type VehicleHandler struct {
	Store matching.Store
}

type CreateVehiclePayload struct {
	PlateNumber string              `json:"plateNumber" binding:"required"`
	Model       string              `json:"model"`
	Specs       models.VehicleSpecs `json:"specs" binding:"required"`
}

// CreateVehicle registers a vehicle for the authenticated carrier.
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	var payload CreateVehiclePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch payload.Specs.Class {
	case models.VehicleVan, models.VehicleTruck, models.VehicleTrailer, models.VehicleMega:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "specs.class must be van, truck, trailer or mega"})
		return
	}

	now := time.Now()
	vehicle := &models.Vehicle{
		VehicleID:      fmt.Sprintf("VEH-%s", strings.ToUpper(uuid.New().String()[:8])),
		PlateNumber:    payload.PlateNumber,
		OwnerCarrierID: c.GetString("user_id"),
		Model:          payload.Model,
		Specs:          payload.Specs,
		Active:         true,
		Status:         models.VehicleAvailable,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := h.Store.InsertVehicle(context.Background(), vehicle); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create vehicle"})
		return
	}

	c.JSON(http.StatusCreated, vehicle)
}

// GetMyVehicles lists the authenticated carrier's fleet.
func (h *VehicleHandler) GetMyVehicles(c *gin.Context) {
	vehicles, err := h.Store.ListVehiclesByCarrier(context.Background(), c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query vehicles"})
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

type UpdateVehicleStatusPayload struct {
	Status string `json:"status" binding:"required"`
}

// UpdateVehicleStatus lets a carrier park a vehicle for maintenance or
// bring it back. Trip assignment is owned by the matching engine, so
// in_trip cannot be set here.
func (h *VehicleHandler) UpdateVehicleStatus(c *gin.Context) {
	var payload UpdateVehicleStatusPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if payload.Status != models.VehicleAvailable && payload.Status != models.VehicleMaintenance {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be available or maintenance"})
		return
	}

	vehicleID := c.Param("id")
	vehicle, err := h.Store.GetVehicle(context.Background(), vehicleID)
	if err != nil {
		respondError(c, err)
		return
	}
	if vehicle.OwnerCarrierID != c.GetString("user_id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Vehicle belongs to another carrier"})
		return
	}
	if vehicle.Status == models.VehicleInTrip {
		c.JSON(http.StatusConflict, gin.H{"error": "Vehicle is on an active tour"})
		return
	}

	if err := h.Store.SetVehicleStatus(context.Background(), vehicleID, payload.Status); err != nil {
		respondError(c, err)
		return
	}
	vehicle.Status = payload.Status
	c.JSON(http.StatusOK, vehicle)
}
