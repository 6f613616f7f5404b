package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hwlock/internal/codec"
	"hwlock/internal/entity"
	"hwlock/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Validation reasons, in the priority order they are reported.
const (
	ReasonNoLicense           = "NO_LICENSE"
	ReasonHWIDMismatchSession = "HWID_MISMATCH_SESSION"
	ReasonNoValidLicense      = "NO_VALID_LICENSE"
)

type RedeemResult struct {
	ProductCode   string
	ExpiresAt     *time.Time
	BoundHWIDHash string
}

type ValidationResult struct {
	Valid       bool
	ProductCode string
	Reason      string
	ExpiresAt   *time.Time
}

// LicenseService is the ledger of per-code redemption state plus the
// validation orchestrator over ledger and session.
type LicenseService struct {
	products repository.ProductRepository
	licenses repository.LicenseRepository
	audit    repository.AuditLogRepository

	secret []byte
	clock  Clock
}

func NewLicenseService(
	products repository.ProductRepository,
	licenses repository.LicenseRepository,
	audit repository.AuditLogRepository,
	secret []byte,
	clock Clock,
) *LicenseService {
	return &LicenseService{
		products: products,
		licenses: licenses,
		audit:    audit,
		secret:   secret,
		clock:    clock,
	}
}

func (s *LicenseService) GetProduct(ctx context.Context, code string) (*entity.Product, error) {
	product, err := s.products.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Redeem runs the per-code state machine. The envelope is verified before
// any ledger access, so a forged code never creates a row; the ledger row
// is created on first verified attempt and the hardware binding is fixed
// then, permanently. Redeeming again with the same account and hardware is
// idempotent.
func (s *LicenseService) Redeem(ctx context.Context, user *entity.User, session *entity.Session, productCode string, licenseCode string, hwidHash string, ipAddress *string) (*RedeemResult, error) {
	product, err := s.GetProduct(ctx, productCode)
	if err != nil {
		return nil, err
	}
	if !product.IsPaid {
		return nil, ErrProductFree
	}
	if hwidHash != session.HWIDHash {
		return nil, ErrHWIDMismatchSession
	}

	now := s.clock.Now()
	fields, err := codec.DecodeAndVerify(licenseCode, s.secret, now)
	if err != nil {
		s.auditRedeem(ctx, user, ipAddress, false, map[string]any{"product": productCode, "error": err.Error()})
		return nil, fmt.Errorf("%w: %w", ErrLicenseInvalid, err)
	}
	if fields.Product != product.Code {
		return nil, ErrLicenseProductMismatch
	}

	fresh := &entity.LicenseCode{
		Code:      licenseCode,
		ProductID: product.ID,
		ExpiresAt: fields.ExpiresAt,
	}
	record, err := s.licenses.RedeemTx(ctx, licenseCode, fresh, func(lc *entity.LicenseCode) error {
		if lc.IsRevoked {
			if lc.RevokeReason != nil {
				return fmt.Errorf("%w: %s", ErrLicenseRevoked, *lc.RevokeReason)
			}
			return ErrLicenseRevoked
		}
		if lc.RedeemedByUserID != nil && *lc.RedeemedByUserID != user.ID {
			return ErrAlreadyRedeemed
		}
		if lc.BoundHWIDHash == nil {
			lc.BoundHWIDHash = &hwidHash
		} else if *lc.BoundHWIDHash != hwidHash {
			return ErrHWIDChanged
		}
		lc.RedeemedByUserID = &user.ID
		lc.RedeemedAt = &now
		return nil
	})
	if err != nil {
		s.auditRedeem(ctx, user, ipAddress, false, map[string]any{"product": productCode, "error": err.Error()})
		return nil, err
	}

	s.auditRedeem(ctx, user, ipAddress, true, map[string]any{"product": productCode})
	return &RedeemResult{
		ProductCode:   product.Code,
		ExpiresAt:     record.ExpiresAt,
		BoundHWIDHash: *record.BoundHWIDHash,
	}, nil
}

// Validate answers entitlement without mutating any state. Free products
// need only a live session. Paid products need the session's hardware hash
// to match the declared one and at least one usable ledger record: owned by
// the account, not revoked, not expired as of now, bound to the caller's
// hardware or not bound at all.
func (s *LicenseService) Validate(ctx context.Context, user *entity.User, session *entity.Session, productCode string, hwidHash string) (*ValidationResult, error) {
	product, err := s.GetProduct(ctx, productCode)
	if err != nil {
		return nil, err
	}
	if !product.IsPaid {
		return &ValidationResult{Valid: true, ProductCode: product.Code}, nil
	}

	records, err := s.licenses.ListRedeemedByUser(ctx, user.ID, product.ID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &ValidationResult{ProductCode: product.Code, Reason: ReasonNoLicense}, nil
	}

	if hwidHash != session.HWIDHash {
		return &ValidationResult{ProductCode: product.Code, Reason: ReasonHWIDMismatchSession}, nil
	}

	now := s.clock.Now()
	for i := range records {
		if records[i].Usable(hwidHash, now) {
			return &ValidationResult{Valid: true, ProductCode: product.Code, ExpiresAt: records[i].ExpiresAt}, nil
		}
	}
	return &ValidationResult{ProductCode: product.Code, Reason: ReasonNoValidLicense}, nil
}

// Revoke is terminal: every later redeem or validate of the code fails.
func (s *LicenseService) Revoke(ctx context.Context, code string, reason string, actorID *uuid.UUID, ipAddress *string) (*entity.LicenseCode, error) {
	record, err := s.licenses.Revoke(ctx, code, reason)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrLicenseNotFound
	}
	_ = s.logAudit(ctx, actorID, ipAddress, entity.AuditLicenseRevoked, map[string]any{"reason": reason})
	return record, nil
}

func (s *LicenseService) auditRedeem(ctx context.Context, user *entity.User, ipAddress *string, ok bool, metadata map[string]any) {
	action := entity.AuditRedeemDenied
	if ok {
		action = entity.AuditRedeemSuccess
	}
	_ = s.logAudit(ctx, &user.ID, ipAddress, action, metadata)
}

func (s *LicenseService) logAudit(ctx context.Context, userID *uuid.UUID, ipAddress *string, action entity.AuditAction, metadata map[string]any) error {
	if s.audit == nil {
		return nil
	}
	var payload datatypes.JSON
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		payload = datatypes.JSON(raw)
	}
	return s.audit.Log(ctx, &entity.AuditLog{
		UserID:    userID,
		IPAddress: ipAddress,
		Action:    action,
		Metadata:  payload,
	})
}
