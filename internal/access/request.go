package access

import (
	"fmt"
	"time"

	"parking-access-backend/internal/model"
	"parking-access-backend/internal/plate"
)

// eventTimeSlack is how far in the future an event time may lie before it is
// rejected, to absorb clock skew between gate controllers and the server.
const eventTimeSlack = 5 * time.Minute

// Request is one access attempt as handed to the engine by the boundary.
type Request struct {
	Plate     string
	UserID    string
	Type      model.AccessType
	Timestamp time.Time
}

// Validate rejects malformed requests before any transaction is opened.
// Validation failures leave no trace in the store.
func (r Request) Validate() error {
	if err := plate.Validate(r.Plate); err != nil {
		return validationError(err.Error())
	}
	if r.UserID == "" {
		return validationError("user id is required")
	}
	if !r.Type.Valid() {
		return validationError(fmt.Sprintf("access type must be %q or %q", model.AccessEntry, model.AccessExit))
	}
	if r.Timestamp.IsZero() {
		return validationError("timestamp is required")
	}
	if r.Timestamp.After(time.Now().Add(eventTimeSlack)) {
		return validationError("timestamp must not be in the future")
	}
	return nil
}

// Result is returned to the boundary on a granted access.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	LogID   string `json:"logId"`
}
