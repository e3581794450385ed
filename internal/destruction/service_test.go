package destruction

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	"uidtrust/internal/audit"
	"uidtrust/internal/docstore"
	"uidtrust/internal/platform/metrics"
	"uidtrust/internal/user"
	dErrors "uidtrust/pkg/domain-errors"
	"uidtrust/pkg/platform/sentinel"
)

type DestroySuite struct {
	suite.Suite

	users    *user.Store
	auditPub *audit.MemoryPublisher
	service  *Service

	relayer common.Address
	target  common.Address
}

func TestDestroySuite(t *testing.T) {
	suite.Run(t, new(DestroySuite))
}

func (s *DestroySuite) SetupTest() {
	s.users = user.NewStore(docstore.NewMemoryStore(), "test_")
	s.auditPub = audit.NewMemoryPublisher()
	s.relayer = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	s.target = common.HexToAddress("0xCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = NewService(s.users, s.auditPub, logger, metrics.NewForTest())
	s.service.now = func() time.Time { return time.Unix(1700000000, 0) }
}

func (s *DestroySuite) seedApprovedUser() {
	err := s.users.SaveUser(context.Background(), &user.User{
		Address:     s.target.Hex(),
		CountryCode: "DE",
		KYCProvider: user.ProviderPersona,
		Persona:     &user.PersonaData{ID: "inq_7", Status: user.PersonaStatusApproved},
	})
	s.Require().NoError(err)
}

func (s *DestroySuite) TestDestroysApprovedUser() {
	s.seedApprovedUser()
	plaintext := EncodeBurnMessage(s.target, user.UIDTypeUSAccreditedIndividual)

	err := s.service.DestroyUser(context.Background(), s.relayer, plaintext)
	s.Require().NoError(err)

	_, err = s.users.GetUser(context.Background(), user.Key(s.target))
	s.ErrorIs(err, sentinel.ErrNotFound)

	log, err := s.users.GetDestroyedUser(context.Background(), user.Key(s.target))
	s.Require().NoError(err)
	s.Require().Len(log.Deletions, 1)
	s.Equal("1", log.Deletions[0].BurnedUidType)
	s.Equal("DE", log.Deletions[0].CountryCode)
	s.Equal(user.ProviderPersona, log.Deletions[0].CredentialProviderSnapshot.Provider)
	s.Equal("inq_7", log.Deletions[0].CredentialProviderSnapshot.ID)
	s.Equal(int64(1700000000), log.Deletions[0].DeletedAt)

	events := s.auditPub.Events()
	s.Require().Len(events, 1)
	s.Equal(audit.ActionUserDestroyed, events[0].Action)
	s.Equal(s.relayer.Hex(), events[0].Signer)
}

func (s *DestroySuite) TestAbsentUserIsIdempotentNoOp() {
	plaintext := EncodeBurnMessage(s.target, user.UIDTypeNonUSIndividual)

	s.Require().NoError(s.service.DestroyUser(context.Background(), s.relayer, plaintext))
	s.Require().NoError(s.service.DestroyUser(context.Background(), s.relayer, plaintext))

	_, err := s.users.GetDestroyedUser(context.Background(), user.Key(s.target))
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.Empty(s.auditPub.Events())
}

func (s *DestroySuite) TestDeletionLogIsAppendOnly() {
	plaintext := EncodeBurnMessage(s.target, user.UIDTypeUSAccreditedIndividual)

	s.seedApprovedUser()
	s.Require().NoError(s.service.DestroyUser(context.Background(), s.relayer, plaintext))

	// The address re-registers and burns again.
	s.seedApprovedUser()
	second := EncodeBurnMessage(s.target, user.UIDTypeNonUSIndividual)
	s.Require().NoError(s.service.DestroyUser(context.Background(), s.relayer, second))

	log, err := s.users.GetDestroyedUser(context.Background(), user.Key(s.target))
	s.Require().NoError(err)
	s.Require().Len(log.Deletions, 2)
	s.Equal("1", log.Deletions[0].BurnedUidType)
	s.Equal("0", log.Deletions[1].BurnedUidType)
}

func (s *DestroySuite) TestParallelMarketsUserUnsupported() {
	err := s.users.SaveUser(context.Background(), &user.User{
		Address:         s.target.Hex(),
		KYCProvider:     user.ProviderParallelMarkets,
		ParallelMarkets: &user.ParallelMarketsData{ID: "pm_1", IdentityStatus: "approved"},
	})
	s.Require().NoError(err)

	err = s.service.DestroyUser(context.Background(), s.relayer, EncodeBurnMessage(s.target, 0))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	// Unsupported path never silently skips or deletes.
	_, err = s.users.GetUser(context.Background(), user.Key(s.target))
	s.NoError(err)
}

func (s *DestroySuite) TestNonApprovedStatusRejected() {
	err := s.users.SaveUser(context.Background(), &user.User{
		Address:     s.target.Hex(),
		KYCProvider: user.ProviderPersona,
		Persona:     &user.PersonaData{ID: "inq_7", Status: "pending"},
	})
	s.Require().NoError(err)

	err = s.service.DestroyUser(context.Background(), s.relayer, EncodeBurnMessage(s.target, 0))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal("Can only delete users with 'approved' status", dErrors.MessageOf(err))
}

func (s *DestroySuite) TestBadPlaintext() {
	cases := []struct {
		name      string
		plaintext string
	}{
		{"empty", ""},
		{"not hex", "hello"},
		{"too short", "0x01"},
		{"too long", "0x" + "00" + "cccccccccccccccccccccccccccccccccccccccc" + "00"},
		{"uid type out of range", EncodeBurnMessage(s.target, user.UIDType(9))},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			err := s.service.DestroyUser(context.Background(), s.relayer, tc.plaintext)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
			s.Equal("Bad plaintext", dErrors.MessageOf(err))
		})
	}
}
