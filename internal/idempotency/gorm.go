package idempotency

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/go-stockpos/internal/models"
)

// GormStore persists records in the idempotency_records table so replays
// survive restarts and work across instances.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Reserve(ctx context.Context, key, fingerprint string, now time.Time, ttl time.Duration) (Reservation, error) {
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	id := recordID(key)
	var res Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fresh := models.IdempotencyRecord{
			ID:          id,
			Key:         key,
			Fingerprint: fingerprint,
			Status:      string(StatusPending),
			CreatedAt:   now,
			UpdatedAt:   now,
			ExpiresAt:   now.Add(ttl),
		}
		created := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh)
		if created.Error != nil {
			return created.Error
		}
		if created.RowsAffected == 1 {
			res = Reservation{State: ReservationStateNew, Record: toRecord(fresh)}
			return nil
		}

		var row models.IdempotencyRecord
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			return err
		}
		if !row.ExpiresAt.After(now) {
			upd := tx.Model(&models.IdempotencyRecord{}).
				Where("id = ? AND expires_at <= ?", id, now).
				Updates(map[string]any{
					"key": key, "fingerprint": fingerprint, "status": string(StatusPending),
					"response_status": 0, "response_headers": "", "response_body": nil,
					"created_at": now, "updated_at": now, "expires_at": now.Add(ttl),
				})
			if upd.Error != nil {
				return upd.Error
			}
			if upd.RowsAffected == 1 {
				res = Reservation{State: ReservationStateNew, Record: toRecord(fresh)}
				return nil
			}
			if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
				return err
			}
		}
		if row.Fingerprint != fingerprint {
			return ErrFingerprintMismatch
		}
		rec := toRecord(row)
		if rec.Status == StatusCompleted {
			res = Reservation{State: ReservationStateCompleted, Record: rec}
		} else {
			res = Reservation{State: ReservationStatePending, Record: rec}
		}
		return nil
	})
	return res, err
}

func (s *GormStore) SaveResponse(ctx context.Context, key, fingerprint string, resp Response, now time.Time, ttl time.Duration) error {
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	headers, err := json.Marshal(sanitizeHeaders(resp.Headers))
	if err != nil {
		return err
	}
	upd := s.db.WithContext(ctx).Model(&models.IdempotencyRecord{}).
		Where("id = ? AND fingerprint = ?", recordID(key), fingerprint).
		Updates(map[string]any{
			"status":           string(StatusCompleted),
			"response_status":  resp.Status,
			"response_headers": string(headers),
			"response_body":    resp.Body,
			"updated_at":       now,
			"expires_at":       now.Add(ttl),
		})
	if upd.Error != nil {
		return upd.Error
	}
	if upd.RowsAffected == 0 {
		return ErrFingerprintMismatch
	}
	return nil
}

func (s *GormStore) Release(ctx context.Context, key, fingerprint string) error {
	return s.db.WithContext(ctx).
		Where("id = ? AND fingerprint = ?", recordID(key), fingerprint).
		Delete(&models.IdempotencyRecord{}).Error
}

func (s *GormStore) CleanupExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	q := s.db.WithContext(ctx).Model(&models.IdempotencyRecord{}).Where("expires_at <= ?", now.UTC())
	if limit > 0 {
		var ids []string
		if err := q.Limit(limit).Pluck("id", &ids).Error; err != nil {
			return 0, err
		}
		if len(ids) == 0 {
			return 0, nil
		}
		res := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.IdempotencyRecord{})
		return int(res.RowsAffected), res.Error
	}
	res := q.Delete(&models.IdempotencyRecord{})
	return int(res.RowsAffected), res.Error
}

func toRecord(row models.IdempotencyRecord) Record {
	rec := Record{
		Key:            row.Key,
		Fingerprint:    row.Fingerprint,
		Status:         Status(row.Status),
		ResponseStatus: row.ResponseStatus,
		ResponseBody:   row.ResponseBody,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
		ExpiresAt:      row.ExpiresAt,
	}
	if row.ResponseHeaders != "" {
		if err := json.Unmarshal([]byte(row.ResponseHeaders), &rec.ResponseHeaders); err != nil {
			rec.ResponseHeaders = nil
		}
	}
	return rec
}

var _ Store = (*GormStore)(nil)
var _ Store = (*MemoryStore)(nil)
