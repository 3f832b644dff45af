package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"parking-access-backend/internal/access"
	"parking-access-backend/internal/model"
)

type auditLogResponse struct {
	ID            string           `json:"id"`
	VehiclePlate  string           `json:"vehiclePlate"`
	UserID        string           `json:"userId"`
	AccessType    model.AccessType `json:"accessType"`
	Timestamp     time.Time        `json:"timestamp"`
	Success       bool             `json:"success"`
	FailureReason *string          `json:"failureReason"`
	VehicleID     *string          `json:"vehicleId"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// GetAuditLogs handles GET /api/access/audit. Results are ordered by event
// timestamp, newest first; an optional plate query narrows to one vehicle.
func (h *Handler) GetAuditLogs(c *gin.Context) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		writeError(c, http.StatusBadRequest, access.CodeValidation, "skip must be a non-negative integer")
		return
	}
	take, err := strconv.Atoi(c.DefaultQuery("take", "50"))
	if err != nil || take <= 0 {
		writeError(c, http.StatusBadRequest, access.CodeValidation, "take must be a positive integer")
		return
	}

	var logs []model.AccessLog
	if p := c.Query("plate"); p != "" {
		logs, err = h.store.AccessLogs().GetByVehiclePlate(c.Request.Context(), p)
	} else {
		logs, err = h.store.AccessLogs().GetAll(c.Request.Context(), skip, take)
	}
	if err != nil {
		writeError(c, http.StatusInternalServerError, access.CodeInternal, "failed to retrieve audit logs")
		return
	}

	responses := make([]auditLogResponse, 0, len(logs))
	for _, l := range logs {
		responses = append(responses, auditLogResponse{
			ID:            l.ID,
			VehiclePlate:  l.VehiclePlate,
			UserID:        l.UserID,
			AccessType:    l.AccessType,
			Timestamp:     l.Timestamp,
			Success:       l.Success,
			FailureReason: l.FailureReason,
			VehicleID:     l.VehicleID,
			CreatedAt:     l.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, responses)
}
