// Package linking implements the UID-recipient-authorization state machine:
// it validates a presigned mint message, pre-flights on-chain credential
// balances, and transactionally records a wallet-to-recipient binding with
// conflict detection.
package linking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"uidtrust/internal/audit"
	"uidtrust/internal/chain"
	"uidtrust/internal/platform/metrics"
	"uidtrust/internal/platform/middleware"
	"uidtrust/internal/user"
	dErrors "uidtrust/pkg/domain-errors"
	"uidtrust/pkg/platform/sentinel"
)

// Request is the JSON body of a link request. Pointer fields distinguish
// "absent" from zero values: UID type 0 and nonce 0 are both legitimate.
type Request struct {
	MsgSender     string  `json:"msgSender"`
	UIDType       *int    `json:"uidType"`
	ExpiresAt     *uint64 `json:"expiresAt"`
	Nonce         *uint64 `json:"nonce"`
	MintToAddress string  `json:"mintToAddress,omitempty"`
}

// Service runs the linking state machine.
type Service struct {
	users    *user.Store
	uid      chain.UniqueIdentityReader
	source   chain.BlockSource
	contract common.Address
	chainID  *big.Int
	audit    audit.Publisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewService wires the linking dependencies. source must be the block
// source of the network the UniqueIdentity contract lives on.
func NewService(
	users *user.Store,
	uid chain.UniqueIdentityReader,
	source chain.BlockSource,
	contract common.Address,
	chainID *big.Int,
	auditPub audit.Publisher,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		users:    users,
		uid:      uid,
		source:   source,
		contract: contract,
		chainID:  chainID,
		audit:    auditPub,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// LinkUid validates and records a wallet-to-UID-recipient binding. The
// returned string is the success confirmation; errors carry the HTTP code
// the handler writes.
func (s *Service) LinkUid(ctx context.Context, signer common.Address, req Request, presignedPlaintext string) (string, error) {
	msgSender, uidType, err := s.validate(req)
	if err != nil {
		return "", err
	}

	latest, err := s.source.LatestBlock(ctx)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "internal server error")
	}
	if *req.ExpiresAt <= latest.Timestamp {
		return "", dErrors.New(dErrors.CodeBadRequest, "Signature has expired")
	}

	var mintTo *common.Address
	if req.MintToAddress != "" {
		addr := common.HexToAddress(req.MintToAddress)
		mintTo = &addr
	}
	expected := hexutil.Encode(MintMessage(msgSender, mintTo, uidType, *req.ExpiresAt, s.contract, *req.Nonce, s.chainID))
	if presignedPlaintext != expected {
		return "", dErrors.New(dErrors.CodeBadRequest, "Presigned message does not match params.")
	}

	recipient := msgSender
	if mintTo != nil {
		recipient = *mintTo
	}

	// Pre-flight, not sole enforcement: the contract itself rejects a
	// second mint of the same type to the same holder.
	balance, err := s.uid.BalanceOf(ctx, recipient, big.NewInt(int64(uidType)))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "internal server error")
	}
	if balance.Sign() != 0 {
		return "", dErrors.Newf(dErrors.CodeBadRequest,
			"Address %s already owns a UID of type %s", recipient.Hex(), uidType)
	}
	if mintTo != nil {
		senderBalance, err := s.uid.BalanceOf(ctx, msgSender, big.NewInt(int64(uidType)))
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "internal server error")
		}
		if senderBalance.Sign() != 0 {
			return "", dErrors.Newf(dErrors.CodeBadRequest,
				"Address %s owns a UID of type %s and cannot authorize minting to another address", msgSender.Hex(), uidType)
		}
	}

	key := user.Key(msgSender)
	recipientKey := user.Key(recipient)
	err = s.users.RunTransaction(ctx, func(tx *user.Tx) error {
		u, err := tx.GetUser(key)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "User with address %s not found", msgSender.Hex())
		}
		if err != nil {
			return err
		}

		if existing, ok := u.UIDRecipientAuthorizations[uidType.String()]; ok {
			if strings.EqualFold(existing, recipientKey) {
				// Re-linking the recorded recipient has no observable
				// effect; treat it as success.
				return nil
			}
			return dErrors.Newf(dErrors.CodeBadRequest,
				"Address %s is already linked to UID recipient %s for UID type %s. The link can only change after the original authorization signature has expired.",
				msgSender.Hex(), existing, uidType)
		}

		tx.SetRecipientAuthorization(key, uidType, recipientKey, s.now())
		return nil
	})
	if err != nil {
		var de *dErrors.Error
		if errors.As(err, &de) {
			return "", de
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "internal server error")
	}

	s.metrics.UIDsLinked.Inc()
	s.emitAudit(ctx, signer, key, recipientKey, uidType)
	return fmt.Sprintf("User %s is linked to UID recipient %s for UID type %s", key, recipientKey, uidType), nil
}

func (s *Service) validate(req Request) (common.Address, user.UIDType, error) {
	if req.MsgSender == "" {
		return common.Address{}, 0, dErrors.New(dErrors.CodeBadRequest, "msgSender not provided.")
	}
	if !common.IsHexAddress(req.MsgSender) {
		return common.Address{}, 0, dErrors.New(dErrors.CodeBadRequest, "Invalid msgSender address.")
	}
	if req.UIDType == nil {
		return common.Address{}, 0, dErrors.New(dErrors.CodeBadRequest, "uidType not provided.")
	}
	if req.ExpiresAt == nil {
		return common.Address{}, 0, dErrors.New(dErrors.CodeBadRequest, "expiresAt not provided.")
	}
	if req.Nonce == nil {
		return common.Address{}, 0, dErrors.New(dErrors.CodeBadRequest, "nonce not provided.")
	}
	if req.MintToAddress != "" && !common.IsHexAddress(req.MintToAddress) {
		return common.Address{}, 0, dErrors.New(dErrors.CodeBadRequest, "Invalid mintToAddress address.")
	}
	uidType := user.UIDType(*req.UIDType)
	if !uidType.Valid() {
		return common.Address{}, 0, dErrors.Newf(dErrors.CodeBadRequest, "Unknown UID type %d.", *req.UIDType)
	}
	return common.HexToAddress(req.MsgSender), uidType, nil
}

func (s *Service) emitAudit(ctx context.Context, signer common.Address, key, recipientKey string, uidType user.UIDType) {
	err := s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionUIDLinked,
		Address:   key,
		Signer:    signer.Hex(),
		RequestID: middleware.GetRequestID(ctx),
		Details: map[string]string{
			"uidType":   uidType.String(),
			"recipient": recipientKey,
		},
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", string(audit.ActionUIDLinked), "error", err)
	}
}
