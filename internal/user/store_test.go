package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"uidtrust/internal/docstore"
	"uidtrust/pkg/platform/sentinel"
)

type StoreSuite struct {
	suite.Suite
	store *Store
}

func (s *StoreSuite) SetupTest() {
	s.store = NewStore(docstore.NewMemoryStore(), "test_")
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) TestUserRoundTrip() {
	ctx := context.Background()
	u := &User{
		Address:     "0xA57415BeCcA125Ee98B04b229A0Af367f4144030",
		CountryCode: "US",
		KYCProvider: ProviderPersona,
		Persona:     &PersonaData{ID: "inq_123", Status: PersonaStatusApproved},
	}
	s.Require().NoError(s.store.SaveUser(ctx, u))

	// Keys are the lowercase address regardless of input casing.
	got, err := s.store.GetUser(ctx, "0xa57415becca125ee98b04b229a0af367f4144030")
	s.Require().NoError(err)
	s.Equal(u.Address, got.Address)
	s.Equal(ProviderPersona, got.KYCProvider)
	s.Equal(PersonaStatusApproved, got.Persona.Status)
}

func (s *StoreSuite) TestGetUserNotFound() {
	_, err := s.store.GetUser(context.Background(), "0x0000000000000000000000000000000000000001")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreSuite) TestRecipientAuthorizationMergePreservesSiblings() {
	ctx := context.Background()
	key := "0xa57415becca125ee98b04b229a0af367f4144030"
	s.Require().NoError(s.store.SaveUser(ctx, &User{
		Address:                    "0xA57415BeCcA125Ee98B04b229A0Af367f4144030",
		KYCProvider:                ProviderPersona,
		UIDRecipientAuthorizations: map[string]string{"0": "0xaaaa"},
	}))

	now := time.Unix(1700000000, 0)
	err := s.store.RunTransaction(ctx, func(tx *Tx) error {
		if _, err := tx.GetUser(key); err != nil {
			return err
		}
		tx.SetRecipientAuthorization(key, UIDTypeUSAccreditedIndividual, "0xbbbb", now)
		return nil
	})
	s.Require().NoError(err)

	got, err := s.store.GetUser(ctx, key)
	s.Require().NoError(err)
	s.Equal("0xaaaa", got.UIDRecipientAuthorizations["0"])
	s.Equal("0xbbbb", got.UIDRecipientAuthorizations["1"])
	s.Equal(now.Unix(), got.UpdatedAt)
	s.Equal(ProviderPersona, got.KYCProvider)
}

func (s *StoreSuite) TestDeleteAndTombstoneInOneTransaction() {
	ctx := context.Background()
	key := "0xa57415becca125ee98b04b229a0af367f4144030"
	s.Require().NoError(s.store.SaveUser(ctx, &User{
		Address:     "0xA57415BeCcA125Ee98B04b229A0Af367f4144030",
		CountryCode: "US",
		KYCProvider: ProviderPersona,
		Persona:     &PersonaData{ID: "inq_123", Status: PersonaStatusApproved},
	}))

	err := s.store.RunTransaction(ctx, func(tx *Tx) error {
		u, err := tx.GetUser(key)
		if err != nil {
			return err
		}
		tx.DeleteUser(key)
		return tx.SetDestroyedUser(&DestroyedUser{
			Address: key,
			Deletions: []DeletionRecord{{
				CountryCode:   u.CountryCode,
				BurnedUidType: UIDTypeUSAccreditedIndividual.String(),
				CredentialProviderSnapshot: ProviderSnapshot{
					Provider: ProviderPersona,
					ID:       u.Persona.ID,
					Status:   u.Persona.Status,
				},
				DeletedAt: 1700000000,
			}},
		})
	})
	s.Require().NoError(err)

	_, err = s.store.GetUser(ctx, key)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	tombstone, err := s.store.GetDestroyedUser(ctx, key)
	s.Require().NoError(err)
	s.Require().Len(tombstone.Deletions, 1)
	s.Equal("1", tombstone.Deletions[0].BurnedUidType)
	s.Equal("US", tombstone.Deletions[0].CountryCode)
}

func TestUIDTypeValidity(t *testing.T) {
	for i := 0; i <= 4; i++ {
		if !(UIDType(i)).Valid() {
			t.Errorf("UID type %d should be valid", i)
		}
	}
	for _, v := range []int{-1, 5, 255} {
		if (UIDType(v)).Valid() {
			t.Errorf("UID type %d should be invalid", v)
		}
	}
}
