// Package addresssync implements the Address Synchronizer stage (spec.md
// section 4.2): reconcile the GPS->address map with the relational store's
// contacts, minting missing chain addresses deterministically from the
// master mnemonic.
package addresssync

import (
	"context"
	"fmt"
	"log"

	"github.com/certen/independant-validator/pkg/errs"
	"github.com/certen/independant-validator/pkg/hdwallet"
	"github.com/certen/independant-validator/pkg/objectstore"
	"github.com/certen/independant-validator/pkg/relational"
)

// ContactLister is the subset of relational.ContactRepository the
// synchronizer depends on.
type ContactLister interface {
	ListForScoring(ctx context.Context) ([]*relational.Contact, error)
	UpdateCeloAddress(ctx context.Context, recordID, address string) error
}

// Stage wires the contact repository, wallet, and object store together.
type Stage struct {
	contacts ContactLister
	wallet   *hdwallet.Wallet
	store    *objectstore.Client
	logger   *log.Logger
}

// NewStage builds an Address Synchronizer stage.
func NewStage(contacts ContactLister, wallet *hdwallet.Wallet, store *objectstore.Client) *Stage {
	return &Stage{
		contacts: contacts,
		wallet:   wallet,
		store:    store,
		logger:   log.New(log.Writer(), "[AddressSync] ", log.LstdFlags),
	}
}

// Run performs one synchronization pass: contacts without an address get one
// minted and persisted, then the map is rebuilt from every contact's GPS IDs
// and written to the object store. A GPS ID claimed by more than one contact
// aborts the whole sync as an integrity violation.
func (s *Stage) Run(ctx context.Context) (int, error) {
	contacts, err := s.contacts.ListForScoring(ctx)
	if err != nil {
		return 0, fmt.Errorf("addresssync: failed to list contacts: %w", err)
	}

	minted := 0
	for _, c := range contacts {
		if c.CeloAddress != "" {
			continue
		}
		addr, err := s.wallet.DeriveAddress(c.ClientID)
		if err != nil {
			return 0, fmt.Errorf("addresssync: failed to derive address for client %d: %w", c.ClientID, err)
		}
		if err := s.contacts.UpdateCeloAddress(ctx, c.RecordID, addr.Hex()); err != nil {
			return 0, fmt.Errorf("addresssync: failed to persist address for client %d: %w", c.ClientID, err)
		}
		c.CeloAddress = addr.Hex()
		minted++
	}

	gpsMap := make(map[string]string)
	var duplicates []string
	for _, c := range contacts {
		if c.CeloAddress == "" {
			continue
		}
		for _, gpsID := range c.GPSIDs {
			if existing, seen := gpsMap[gpsID]; seen && existing != c.CeloAddress {
				duplicates = append(duplicates, gpsID)
				continue
			}
			gpsMap[gpsID] = c.CeloAddress
		}
	}

	if len(duplicates) > 0 {
		return 0, &errs.IntegrityError{
			Reason: "GPS device claimed by more than one contact",
			Items:  duplicates,
		}
	}

	if err := s.store.PutYAML(ctx, objectstore.GPSAddressMapKey(), gpsMap); err != nil {
		return 0, fmt.Errorf("addresssync: failed to write GPS address map: %w", err)
	}

	s.logger.Printf("synchronized addresses: %d newly minted, %d GPS entries mapped", minted, len(gpsMap))
	return minted, nil
}
