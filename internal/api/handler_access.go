package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"parking-access-backend/internal/access"
	"parking-access-backend/internal/model"
	"parking-access-backend/internal/notification"
	"parking-access-backend/internal/plate"
)

type processAccessRequest struct {
	VehiclePlate string     `json:"vehiclePlate" binding:"required"`
	UserID       string     `json:"userId" binding:"required"`
	AccessType   string     `json:"accessType" binding:"required"`
	Timestamp    *time.Time `json:"timestamp"`
}

// errorResponse is the error body for every failed request.
type errorResponse struct {
	Error      string    `json:"error"`
	Code       string    `json:"code"`
	StatusCode int       `json:"statusCode"`
	Timestamp  time.Time `json:"timestamp"`
}

// ProcessAccess handles POST /api/access.
func (h *Handler) ProcessAccess(c *gin.Context) {
	var req processAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, access.CodeValidation, "invalid request body: "+err.Error())
		return
	}

	if _, err := uuid.Parse(req.UserID); err != nil {
		writeError(c, http.StatusBadRequest, access.CodeValidation, "userId must be a valid UUID")
		return
	}

	// An absent timestamp means "now"; gates without a clock omit it.
	ts := time.Now().UTC()
	if req.Timestamp != nil {
		ts = req.Timestamp.UTC()
	}

	result, err := h.engine.ProcessAccess(c.Request.Context(), access.Request{
		Plate:     req.VehiclePlate,
		UserID:    req.UserID,
		Type:      model.AccessType(req.AccessType),
		Timestamp: ts,
	})
	if err != nil {
		respondAccessError(c, err)
		return
	}

	if h.notifier != nil {
		h.notifier.Dispatch(notification.Event{
			Plate: plate.Normalize(req.VehiclePlate),
			Type:  model.AccessType(req.AccessType),
		})
	}

	c.JSON(http.StatusOK, result)
}

// respondAccessError maps the engine's error kinds onto HTTP statuses:
// malformed input is 400, denied rules and lost races are 409, store faults
// are 500.
func respondAccessError(c *gin.Context, err error) {
	var accErr *access.Error
	if !errors.As(err, &accErr) {
		writeError(c, http.StatusInternalServerError, access.CodeInternal, "an internal error occurred, please retry")
		return
	}

	switch accErr.Kind {
	case access.KindValidation:
		writeError(c, http.StatusBadRequest, accErr.Code, accErr.Message)
	case access.KindDomainRule, access.KindConflict:
		writeError(c, http.StatusConflict, accErr.Code, accErr.Message)
	default:
		writeError(c, http.StatusInternalServerError, access.CodeInternal, "an internal error occurred, please retry")
	}
}

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{
		Error:      message,
		Code:       code,
		StatusCode: status,
		Timestamp:  time.Now().UTC(),
	})
}
