package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"parking-access-backend/internal/model"
)

// ErrConcurrencyConflict is returned by UnitOfWork.SaveChanges when a staged
// vehicle write lost a race: either the row's version no longer matches the
// version read at the start of the transaction, or a create hit the unique
// plate constraint because another writer created the row first.
var ErrConcurrencyConflict = errors.New("record was modified by another process")

// VehicleReader provides read access to vehicle records. All plate arguments
// are normalized to upper case before comparison.
type VehicleReader interface {
	// GetByPlate returns the vehicle for a normalized plate, or nil if the
	// plate has never been seen.
	GetByPlate(ctx context.Context, plate string) (*model.Vehicle, error)
	// GetActiveVehicleByUser returns the vehicle currently inside with the
	// given user, or nil. At most one exists by invariant.
	GetActiveVehicleByUser(ctx context.Context, userID string) (*model.Vehicle, error)
}

// VehicleRepository adds staged writes on top of VehicleReader. Add and
// Update stage the change; nothing reaches the database until SaveChanges.
type VehicleRepository interface {
	VehicleReader
	Add(v *model.Vehicle)
	Update(v *model.Vehicle)
}

// AccessLogReader provides read access to the append-only audit log.
type AccessLogReader interface {
	// GetAll returns log entries ordered by event timestamp, newest first.
	GetAll(ctx context.Context, skip, take int) ([]model.AccessLog, error)
	// GetByVehiclePlate returns the entries for one plate, newest first.
	GetByVehiclePlate(ctx context.Context, plate string) ([]model.AccessLog, error)
}

// AccessLogRepository adds staged appends on top of AccessLogReader.
type AccessLogRepository interface {
	AccessLogReader
	Add(l *model.AccessLog)
}

// UnitOfWork groups reads and staged writes into one atomic commit. One unit
// of work serves exactly one in-flight request and must not be shared.
// Rollback after Commit (or a second Rollback) is a no-op, so callers can
// defer it on every exit path.
type UnitOfWork interface {
	Vehicles() VehicleRepository
	AccessLogs() AccessLogRepository

	// SaveChanges flushes staged writes into the open transaction, in the
	// order they were staged. Returns ErrConcurrencyConflict when a vehicle
	// write raced another writer; the transaction must then be rolled back.
	SaveChanges(ctx context.Context) error
	Commit() error
	Rollback() error
}

// Store is the persistence port consumed by the access engine and the API
// handlers. Reads outside a transaction go through the reader accessors;
// writes only happen inside a UnitOfWork.
type Store interface {
	Begin(ctx context.Context) (UnitOfWork, error)
	Vehicles() VehicleReader
	AccessLogs() AccessLogReader
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB { return s.db }

func (s *gormStore) Vehicles() VehicleReader {
	return &vehicleRepo{db: s.db}
}

func (s *gormStore) AccessLogs() AccessLogReader {
	return &accessLogRepo{db: s.db}
}

// Begin opens a database transaction and wraps it in a unit of work.
func (s *gormStore) Begin(ctx context.Context) (UnitOfWork, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	u := &gormUnitOfWork{tx: tx}
	u.vehicles = &vehicleRepo{db: tx, uow: u}
	u.logs = &accessLogRepo{db: tx, uow: u}
	return u, nil
}
