package house

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"

	"github.com/cloudx-io/sealedbid/core"
)

// snapshot is the CBOR-persisted image of the house state. The admission
// record is stored in its internal layout (heap prefix + tail) so a restore
// reproduces the exact structure, not just the bid multiset.
type snapshot struct {
	Created           bool                        `cbor:"1,keyasint"`
	State             AuctionState                `cbor:"2,keyasint"`
	SealedBids        map[string]SealedBidRecord  `cbor:"3,keyasint"`
	RevealedBids      []core.RevealedBid          `cbor:"4,keyasint"`
	Outcomes          map[string]core.Outcome     `cbor:"5,keyasint,omitempty"`
	Proceeds          uint64                      `cbor:"6,keyasint"`
	ProceedsWithdrawn bool                        `cbor:"7,keyasint"`
	Receipt           []byte                      `cbor:"8,keyasint,omitempty"`
}

// Snapshot serializes the full house state as CBOR.
func (h *AuctionHouse) Snapshot() ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sealed := make(map[string]SealedBidRecord, len(h.sealedBids))
	for bidder, record := range h.sealedBids {
		sealed[bidder] = *record
	}
	data, err := cbor.Marshal(&snapshot{
		Created:           h.created,
		State:             h.state,
		SealedBids:        sealed,
		RevealedBids:      h.admission.All(),
		Outcomes:          h.outcomes,
		Proceeds:          h.proceeds,
		ProceedsWithdrawn: h.proceedsWithdrawn,
		Receipt:           h.receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// RestoreSnapshot replaces the house state with a previously captured
// snapshot. The collection, treasury, signer, and clock wiring stay as
// configured.
func (h *AuctionHouse) RestoreSnapshot(data []byte) error {
	var snap snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.created = snap.Created
	h.state = snap.State
	h.sealedBids = make(map[string]*SealedBidRecord, len(snap.SealedBids))
	for bidder, record := range snap.SealedBids {
		r := record
		h.sealedBids[bidder] = &r
	}
	h.admission = core.RestoreBidAdmission(h.topK, snap.RevealedBids)
	h.outcomes = snap.Outcomes
	h.proceeds = snap.Proceeds
	h.proceedsWithdrawn = snap.ProceedsWithdrawn
	h.receipt = snap.Receipt
	return nil
}

// SaveSnapshot writes the snapshot to path atomically (temp file + rename).
func (h *AuctionHouse) SaveSnapshot(path string) error {
	data, err := h.Snapshot()
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot restores the house from a snapshot file.
func (h *AuctionHouse) LoadSnapshot(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	return h.RestoreSnapshot(data)
}
