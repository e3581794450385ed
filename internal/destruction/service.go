package destruction

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"uidtrust/internal/audit"
	"uidtrust/internal/platform/metrics"
	"uidtrust/internal/platform/middleware"
	"uidtrust/internal/user"
	dErrors "uidtrust/pkg/domain-errors"
	"uidtrust/pkg/platform/sentinel"
)

// Service runs the destruction state machine.
type Service struct {
	users   *user.Store
	audit   audit.Publisher
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(users *user.Store, auditPub audit.Publisher, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		users:   users,
		audit:   auditPub,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// DestroyUser deletes the live record named by the burn plaintext and appends
// to the per-address deletion log in the same transaction. Destroying an
// address with no live record succeeds without writing anything.
func (s *Service) DestroyUser(ctx context.Context, signer common.Address, plaintext string) error {
	addressToDestroy, burnedUidType, err := DecodeBurnMessage(plaintext)
	if err != nil {
		return err
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("user.address_to_destroy", addressToDestroy.Hex()),
	)
	key := user.Key(addressToDestroy)

	destroyed := false
	err = s.users.RunTransaction(ctx, func(tx *user.Tx) error {
		destroyed = false

		u, err := tx.GetUser(key)
		if errors.Is(err, sentinel.ErrNotFound) {
			// Nothing to destroy; the burn already outran us or the
			// record never existed. Idempotent success.
			return nil
		}
		if err != nil {
			return err
		}

		if u.KYCProvider == user.ProviderParallelMarkets {
			return dErrors.New(dErrors.CodeInternal, "Destroying Parallel Markets users is not supported")
		}
		if u.Persona == nil || u.Persona.Status != user.PersonaStatusApproved {
			return dErrors.New(dErrors.CodeConflict, "Can only delete users with 'approved' status")
		}

		record := user.DeletionRecord{
			CountryCode:   u.CountryCode,
			BurnedUidType: burnedUidType.String(),
			CredentialProviderSnapshot: user.ProviderSnapshot{
				Provider: user.ProviderPersona,
				ID:       u.Persona.ID,
				Status:   u.Persona.Status,
			},
			DeletedAt: s.now().Unix(),
		}

		log, err := tx.GetDestroyedUser(key)
		if errors.Is(err, sentinel.ErrNotFound) {
			log = &user.DestroyedUser{Address: key}
		} else if err != nil {
			return err
		}
		log.Deletions = append(log.Deletions, record)

		tx.DeleteUser(key)
		if err := tx.SetDestroyedUser(log); err != nil {
			return err
		}
		destroyed = true
		return nil
	})
	if err != nil {
		var de *dErrors.Error
		if errors.As(err, &de) {
			return de
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "internal server error")
	}

	if destroyed {
		s.metrics.UsersDestroyed.Inc()
		s.emitAudit(ctx, signer, key, burnedUidType)
	}
	return nil
}

func (s *Service) emitAudit(ctx context.Context, signer common.Address, key string, burnedUidType user.UIDType) {
	err := s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionUserDestroyed,
		Address:   key,
		Signer:    signer.Hex(),
		RequestID: middleware.GetRequestID(ctx),
		Details: map[string]string{
			"burnedUidType": burnedUidType.String(),
		},
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", string(audit.ActionUserDestroyed), "error", err)
	}
}
