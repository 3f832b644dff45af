package access

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"parking-access-backend/internal/model"
	"parking-access-backend/internal/plate"
	"parking-access-backend/internal/store"
)

// Engine is the access transition engine. It validates a requested
// entry/exit against the current vehicle state, commits the new state
// together with an audit record in one transaction, and surfaces concurrent
// writes as explicit conflicts. Concurrency safety is delegated entirely to
// the store's version token; the engine takes no locks and performs no
// retries.
type Engine struct {
	store store.Store
}

// NewEngine creates an engine over the given store.
func NewEngine(s store.Store) *Engine {
	return &Engine{store: s}
}

// ProcessAccess handles one access attempt. On success it returns the
// granted Result; otherwise the error is an *Error whose Kind tells the
// caller whether the input was malformed, a business rule denied the access
// (audited, state rolled back), a concurrent writer won the race, or the
// store faulted.
func (e *Engine) ProcessAccess(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	normalized := plate.Normalize(req.Plate)

	log.Printf("processing access: plate=%s user=%s type=%s", normalized, req.UserID, req.Type)

	uow, err := e.store.Begin(ctx)
	if err != nil {
		return Result{}, faultError(err)
	}
	// Releases the transaction on every exit path; a no-op after Commit.
	defer uow.Rollback()

	vehicle, err := uow.Vehicles().GetByPlate(ctx, normalized)
	if err != nil {
		return Result{}, faultError(err)
	}
	// The audit row for a failed attempt references the vehicle as it was
	// loaded, never a row staged in the rolled-back transaction.
	existing := vehicle

	var denial *Error
	if req.Type == model.AccessEntry {
		denial, err = e.checkEntryRules(ctx, uow, normalized, req.UserID, vehicle)
		if err != nil {
			return Result{}, faultError(err)
		}
	} else {
		denial = checkExitRules(normalized, vehicle)
	}

	if denial != nil {
		// Discard the state mutation first, then audit the denied attempt
		// in its own transaction so the audit row survives the rollback.
		uow.Rollback()
		e.auditDenied(ctx, req, normalized, existing, denial)
		log.Printf("access denied: plate=%s type=%s code=%s", normalized, req.Type, denial.Code)
		return Result{}, denial
	}

	vehicle = applyTransition(req, normalized, vehicle, uow.Vehicles())

	entry := newLogEntry(req, normalized, &vehicle.ID, true, nil)
	uow.AccessLogs().Add(entry)

	if err := uow.SaveChanges(ctx); err != nil {
		return Result{}, e.failCommit(ctx, uow, req, normalized, existing, err)
	}
	if err := uow.Commit(); err != nil {
		return Result{}, e.failCommit(ctx, uow, req, normalized, existing, err)
	}

	message := "Entry recorded successfully"
	if req.Type == model.AccessExit {
		message = "Exit recorded successfully"
	}

	log.Printf("access granted: plate=%s type=%s logId=%s", normalized, req.Type, entry.ID)
	return Result{Success: true, Message: message, LogID: entry.ID}, nil
}

// checkEntryRules enforces the two entry invariants: a vehicle already
// inside cannot enter again, and a user cannot hold open sessions under two
// different plates at once. Re-entry under the user's own active plate never
// trips the second rule (the first one catches it).
func (e *Engine) checkEntryRules(ctx context.Context, uow store.UnitOfWork, normalized, userID string, vehicle *model.Vehicle) (*Error, error) {
	if vehicle != nil && vehicle.IsInside {
		return errVehicleAlreadyInside(normalized), nil
	}
	active, err := uow.Vehicles().GetActiveVehicleByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active != nil && active.Plate != normalized {
		return errUserHasActiveVehicle(active.Plate), nil
	}
	return nil, nil
}

// checkExitRules rejects exits for plates that have no record or are not
// inside. A vehicle is never auto-created on exit.
func checkExitRules(normalized string, vehicle *model.Vehicle) *Error {
	if vehicle == nil || !vehicle.IsInside {
		return errVehicleNotInside(normalized)
	}
	return nil
}

// applyTransition stages the vehicle write for a validated request: a create
// for a never-seen plate on entry, an in-place update otherwise.
// CurrentUserID is overwritten with the caller on every entry, even when the
// prior occupant differs; occupant history lives in the audit log only.
func applyTransition(req Request, normalized string, vehicle *model.Vehicle, vehicles store.VehicleRepository) *model.Vehicle {
	ts := req.Timestamp
	if vehicle == nil {
		vehicle = &model.Vehicle{
			ID:            uuid.NewString(),
			Plate:         normalized,
			CurrentUserID: req.UserID,
			IsInside:      true,
			LastEntry:     &ts,
		}
		vehicles.Add(vehicle)
		return vehicle
	}

	vehicle.CurrentUserID = req.UserID
	vehicle.IsInside = req.Type == model.AccessEntry
	if req.Type == model.AccessEntry {
		vehicle.LastEntry = &ts
	} else {
		vehicle.LastExit = &ts
	}
	vehicles.Update(vehicle)
	return vehicle
}

// auditDenied records a failed attempt in an independent transaction, after
// the state mutation has been rolled back. Best effort: a failure here is
// logged but does not mask the domain error already headed to the caller.
func (e *Engine) auditDenied(ctx context.Context, req Request, normalized string, vehicle *model.Vehicle, denial *Error) {
	var vehicleID *string
	if vehicle != nil {
		id := vehicle.ID
		vehicleID = &id
	}

	uow, err := e.store.Begin(ctx)
	if err != nil {
		log.Printf("failed to open audit transaction for plate %s: %v", normalized, err)
		return
	}
	defer uow.Rollback()

	reason := denial.Message
	uow.AccessLogs().Add(newLogEntry(req, normalized, vehicleID, false, &reason))

	if err := uow.SaveChanges(ctx); err != nil {
		log.Printf("failed to audit denied access for plate %s: %v", normalized, err)
		return
	}
	if err := uow.Commit(); err != nil {
		log.Printf("failed to commit denied-access audit for plate %s: %v", normalized, err)
	}
}

func newLogEntry(req Request, normalized string, vehicleID *string, success bool, failureReason *string) *model.AccessLog {
	return &model.AccessLog{
		ID:            uuid.NewString(),
		VehiclePlate:  normalized,
		UserID:        req.UserID,
		AccessType:    req.Type,
		Timestamp:     req.Timestamp,
		Success:       success,
		FailureReason: failureReason,
		VehicleID:     vehicleID,
		CreatedAt:     time.Now().UTC(),
	}
}

// failCommit handles a failed flush or commit. A lost race is still an
// attempt, so it is audited like a rule denial; unexpected faults are not,
// because no consistent state was reachable.
func (e *Engine) failCommit(ctx context.Context, uow store.UnitOfWork, req Request, normalized string, existing *model.Vehicle, err error) error {
	uow.Rollback()
	if !errors.Is(err, store.ErrConcurrencyConflict) {
		log.Printf("error processing access for plate %s: %v", normalized, err)
		return faultError(err)
	}

	conflict := errConcurrencyConflict()
	e.auditDenied(ctx, req, normalized, existing, conflict)
	log.Printf("access conflict: plate=%s type=%s", normalized, req.Type)
	return conflict
}
