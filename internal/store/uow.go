package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"parking-access-backend/internal/model"
	"parking-access-backend/internal/plate"
)

// gormUnitOfWork holds one open transaction plus the writes staged against
// it. finished flips on the first Commit or Rollback; later calls are no-ops
// so the transaction handle is released exactly once on every exit path.
type gormUnitOfWork struct {
	tx       *gorm.DB
	vehicles *vehicleRepo
	logs     *accessLogRepo
	pending  []pendingOp
	finished bool
}

type pendingOp interface {
	apply(tx *gorm.DB) error
}

func (u *gormUnitOfWork) Vehicles() VehicleRepository     { return u.vehicles }
func (u *gormUnitOfWork) AccessLogs() AccessLogRepository { return u.logs }

func (u *gormUnitOfWork) enqueue(op pendingOp) {
	u.pending = append(u.pending, op)
}

// SaveChanges flushes staged writes in staging order. On the first failure
// the remaining ops are kept staged and the error is returned; the caller is
// expected to roll back.
func (u *gormUnitOfWork) SaveChanges(ctx context.Context) error {
	for _, op := range u.pending {
		if err := op.apply(u.tx.WithContext(ctx)); err != nil {
			return err
		}
	}
	u.pending = nil
	return nil
}

func (u *gormUnitOfWork) Commit() error {
	if u.finished {
		return nil
	}
	u.finished = true
	return u.tx.Commit().Error
}

func (u *gormUnitOfWork) Rollback() error {
	if u.finished {
		return nil
	}
	u.finished = true
	u.pending = nil
	return u.tx.Rollback().Error
}

// insertVehicle creates a brand-new vehicle row. A duplicate-key failure
// means another writer created the same plate first, which is surfaced as a
// concurrency conflict.
type insertVehicle struct {
	v *model.Vehicle
}

func (op insertVehicle) apply(tx *gorm.DB) error {
	if op.v.ID == "" {
		op.v.ID = uuid.NewString()
	}
	op.v.Plate = plate.Normalize(op.v.Plate)
	if err := tx.Create(op.v).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrConcurrencyConflict
		}
		return err
	}
	return nil
}

// updateVehicle writes a mutated vehicle guarded by the version read at
// load time. Zero rows affected means the row moved on under us.
type updateVehicle struct {
	v *model.Vehicle
}

func (op updateVehicle) apply(tx *gorm.DB) error {
	current := op.v.Version
	res := tx.Model(&model.Vehicle{}).
		Where("id = ? AND version = ?", op.v.ID, current).
		Updates(map[string]any{
			"current_user_id": op.v.CurrentUserID,
			"is_inside":       op.v.IsInside,
			"last_entry":      op.v.LastEntry,
			"last_exit":       op.v.LastExit,
			"version":         current + 1,
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrencyConflict
	}
	op.v.Version = current + 1
	return nil
}

// insertLog appends one audit row. Log rows are never updated.
type insertLog struct {
	l *model.AccessLog
}

func (op insertLog) apply(tx *gorm.DB) error {
	if op.l.ID == "" {
		op.l.ID = uuid.NewString()
	}
	op.l.VehiclePlate = plate.Normalize(op.l.VehiclePlate)
	if op.l.CreatedAt.IsZero() {
		op.l.CreatedAt = time.Now().UTC()
	}
	return tx.Create(op.l).Error
}

// isDuplicateKey detects unique-constraint violations. TranslateError covers
// the postgres driver; the sqlite driver in use predates ErrorTranslator, so
// its message is matched directly.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
