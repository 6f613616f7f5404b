package repository

import (
	"context"
	"errors"

	"hwlock/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LicenseRepository interface {
	// RedeemTx runs one redemption attempt as a single atomic commit:
	// the row for the code is locked, or created from fresh when absent,
	// then apply decides the transition. Two concurrent attempts on the
	// same code therefore observe each other's committed state, never a
	// half-applied one.
	RedeemTx(ctx context.Context, code string, fresh *entity.LicenseCode, apply func(*entity.LicenseCode) error) (*entity.LicenseCode, error)
	ListRedeemedByUser(ctx context.Context, userID uuid.UUID, productID uuid.UUID) ([]entity.LicenseCode, error)
	Revoke(ctx context.Context, code string, reason string) (*entity.LicenseCode, error)
}

type licenseRepository struct {
	db *gorm.DB
}

func NewLicenseRepository(db *gorm.DB) LicenseRepository {
	return &licenseRepository{db: db}
}

func (r *licenseRepository) RedeemTx(ctx context.Context, code string, fresh *entity.LicenseCode, apply func(*entity.LicenseCode) error) (*entity.LicenseCode, error) {
	var result *entity.LicenseCode
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := lockByCode(tx, code)
		if err != nil {
			return err
		}
		if record == nil {
			// ON CONFLICT DO NOTHING absorbs the race where another
			// transaction inserts the same code first; the re-read
			// then waits on its commit and picks up the winner's row.
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "code"}},
				DoNothing: true,
			}).Create(fresh).Error; err != nil {
				return err
			}
			record, err = lockByCode(tx, code)
			if err != nil {
				return err
			}
			if record == nil {
				return gorm.ErrRecordNotFound
			}
		}

		if err := apply(record); err != nil {
			return err
		}
		if err := tx.Save(record).Error; err != nil {
			return err
		}
		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *licenseRepository) ListRedeemedByUser(ctx context.Context, userID uuid.UUID, productID uuid.UUID) ([]entity.LicenseCode, error) {
	var records []entity.LicenseCode
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND redeemed_by_user_id = ?", productID, userID).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *licenseRepository) Revoke(ctx context.Context, code string, reason string) (*entity.LicenseCode, error) {
	var result *entity.LicenseCode
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := lockByCode(tx, code)
		if err != nil {
			return err
		}
		if record == nil {
			return nil
		}
		record.IsRevoked = true
		record.RevokeReason = &reason
		if err := tx.Save(record).Error; err != nil {
			return err
		}
		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func lockByCode(tx *gorm.DB, code string) (*entity.LicenseCode, error) {
	var record entity.LicenseCode
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}
