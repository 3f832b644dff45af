package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parking-access-backend/internal/access"
)

// vehicleStatusResponse is the API shape of one vehicle's presence state.
type vehicleStatusResponse struct {
	ID            string     `json:"id"`
	Plate         string     `json:"plate"`
	IsInside      bool       `json:"isInside"`
	LastEntry     *time.Time `json:"lastEntry"`
	LastExit      *time.Time `json:"lastExit"`
	CurrentUserID string     `json:"currentUserId"`
}

// GetVehicleStatus handles GET /api/access/vehicle/:plate/status.
func (h *Handler) GetVehicleStatus(c *gin.Context) {
	p := c.Param("plate")

	vehicle, err := h.store.Vehicles().GetByPlate(c.Request.Context(), p)
	if err != nil {
		writeError(c, http.StatusInternalServerError, access.CodeInternal, "failed to retrieve vehicle")
		return
	}
	if vehicle == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": fmt.Sprintf("vehicle with plate %s not found", p)})
		return
	}

	c.JSON(http.StatusOK, vehicleStatusResponse{
		ID:            vehicle.ID,
		Plate:         vehicle.Plate,
		IsInside:      vehicle.IsInside,
		LastEntry:     vehicle.LastEntry,
		LastExit:      vehicle.LastExit,
		CurrentUserID: vehicle.CurrentUserID,
	})
}
