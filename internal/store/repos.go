package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"parking-access-backend/internal/model"
	"parking-access-backend/internal/plate"
)

// vehicleRepo reads through its gorm handle (the root connection or an open
// transaction) and stages writes on its unit of work. Readers constructed by
// the store carry a nil uow and never see the write methods.
type vehicleRepo struct {
	db  *gorm.DB
	uow *gormUnitOfWork
}

func (r *vehicleRepo) GetByPlate(ctx context.Context, p string) (*model.Vehicle, error) {
	var v model.Vehicle
	err := r.db.WithContext(ctx).Where("plate = ?", plate.Normalize(p)).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *vehicleRepo) GetActiveVehicleByUser(ctx context.Context, userID string) (*model.Vehicle, error) {
	var v model.Vehicle
	err := r.db.WithContext(ctx).
		Where("current_user_id = ? AND is_inside = ?", userID, true).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *vehicleRepo) Add(v *model.Vehicle) {
	r.uow.enqueue(insertVehicle{v: v})
}

func (r *vehicleRepo) Update(v *model.Vehicle) {
	r.uow.enqueue(updateVehicle{v: v})
}

type accessLogRepo struct {
	db  *gorm.DB
	uow *gormUnitOfWork
}

func (r *accessLogRepo) GetAll(ctx context.Context, skip, take int) ([]model.AccessLog, error) {
	if skip < 0 {
		skip = 0
	}
	if take <= 0 {
		take = 50
	}
	var logs []model.AccessLog
	err := r.db.WithContext(ctx).
		Order("timestamp DESC").
		Offset(skip).
		Limit(take).
		Find(&logs).Error
	return logs, err
}

func (r *accessLogRepo) GetByVehiclePlate(ctx context.Context, p string) ([]model.AccessLog, error) {
	var logs []model.AccessLog
	err := r.db.WithContext(ctx).
		Where("vehicle_plate = ?", plate.Normalize(p)).
		Order("timestamp DESC").
		Find(&logs).Error
	return logs, err
}

func (r *accessLogRepo) Add(l *model.AccessLog) {
	r.uow.enqueue(insertLog{l: l})
}
