package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wedding-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormKV implements KeyValueStore on the MySQL kv_records table. The unique
// index on kv_key plus an ON CONFLICT DO NOTHING insert gives the same
// first-writer-wins semantics as redis SET NX.
type GormKV struct {
	DB *gorm.DB
}

// NewGormKV constructor
func NewGormKV(db *gorm.DB) *GormKV {
	return &GormKV{DB: db}
}

func (g *GormKV) expiresAt(ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := time.Now().UTC().Add(ttl)
	return &t
}

// purgeExpired removes a dead row so its key can be reserved again.
func (g *GormKV) purgeExpired(ctx context.Context, key string) {
	now := time.Now().UTC()
	g.DB.WithContext(ctx).
		Where("kv_key = ? AND expires_at IS NOT NULL AND expires_at <= ?", key, now).
		Delete(&models.KVRecord{})
}

func (g *GormKV) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	g.purgeExpired(ctx, key)

	rec := models.KVRecord{
		Key:       key,
		Value:     value,
		ExpiresAt: g.expiresAt(ttl),
	}
	res := g.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kv_key"}},
			DoNothing: true,
		}).
		Create(&rec)
	if res.Error != nil {
		return false, fmt.Errorf("%w: kv insert: %v", ErrUpstreamUnavailable, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (g *GormKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var rec models.KVRecord
	err := g.DB.WithContext(ctx).Where("kv_key = ?", key).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: kv get: %v", ErrUpstreamUnavailable, err)
	}
	if rec.ExpiresAt != nil && !rec.ExpiresAt.After(time.Now().UTC()) {
		return nil, false, nil
	}
	return rec.Value, true, nil
}

func (g *GormKV) Exists(ctx context.Context, key string) (bool, error) {
	_, found, err := g.Get(ctx, key)
	return found, err
}

func (g *GormKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	rec := models.KVRecord{
		Key:       key,
		Value:     value,
		ExpiresAt: g.expiresAt(ttl),
	}
	res := g.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kv_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"kv_value", "expires_at"}),
		}).
		Create(&rec)
	if res.Error != nil {
		return fmt.Errorf("%w: kv set: %v", ErrUpstreamUnavailable, res.Error)
	}
	return nil
}

func (g *GormKV) Delete(ctx context.Context, key string) error {
	res := g.DB.WithContext(ctx).Where("kv_key = ?", key).Delete(&models.KVRecord{})
	if res.Error != nil {
		return fmt.Errorf("%w: kv delete: %v", ErrUpstreamUnavailable, res.Error)
	}
	return nil
}
