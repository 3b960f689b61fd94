package services

import (
	"context"
	"errors"
	"fmt"

	"wedding-backend/models"
	"wedding-backend/utils"

	"gorm.io/gorm"
)

// GormDirectory serves the guest list from the local MySQL table.
type GormDirectory struct {
	DB *gorm.DB
}

// NewGormDirectory constructor
func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{DB: db}
}

func (d *GormDirectory) FindByCode(ctx context.Context, code string) (*models.GuestRecord, error) {
	normalized := utils.NormalizeGuestCode(code)
	if normalized == "" {
		return nil, fmt.Errorf("%w: code is required", ErrInvalidInput)
	}

	var guest models.GuestRecord
	err := d.DB.WithContext(ctx).Where("code = ?", normalized).First(&guest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: guest query: %v", ErrUpstreamUnavailable, err)
	}

	if !guest.Attendance.Valid() || guest.Attendance == "" {
		guest.Attendance = models.AttendancePending
	}
	return &guest, nil
}

func (d *GormDirectory) Update(ctx context.Context, recordID string, upd models.GuestUpdate) error {
	fields := map[string]interface{}{}
	if upd.HasConfirmed != nil {
		fields["has_confirmed"] = *upd.HasConfirmed
	}
	if upd.Attendance != nil {
		fields["attendance"] = *upd.Attendance
	}
	if upd.TotalGuests != nil {
		fields["total_guests"] = *upd.TotalGuests
	}
	if upd.Song != nil {
		fields["song"] = *upd.Song
	}
	if len(fields) == 0 {
		return nil
	}

	res := d.DB.WithContext(ctx).
		Model(&models.GuestRecord{}).
		Where("record_id = ?", recordID).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("%w: guest update: %v", ErrUpstreamUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
