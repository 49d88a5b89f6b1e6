package house

import (
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/cloudx-io/sealedbid/core"
)

// Config carries the deployment parameters of the auction house. Capacity
// comes from the collection; everything else is fixed here.
type Config struct {
	// Owner is the auctioneer identity allowed to withdraw proceeds.
	Owner string
	// TopK bounds the number of contending bids the finalization
	// optimizer considers. This caps the DP table at TopK x capacity
	// regardless of total bid volume.
	TopK int
	// Signer, when set, produces a COSE-signed outcome receipt at
	// finalization.
	Signer *ReceiptSigner
	// Clock defaults to the system clock.
	Clock Clock
}

// AuctionHouse is the sealed-bid auction state machine. Every public
// operation is a single serialized state transition guarded by one mutex; no
// operation blocks mid-execution.
type AuctionHouse struct {
	mu         sync.Mutex
	clock      Clock
	owner      string
	topK       int
	collection Minter
	treasury   Treasury
	signer     *ReceiptSigner

	created           bool
	state             AuctionState
	sealedBids        map[string]*SealedBidRecord
	admission         *core.BidAdmission
	outcomes          map[string]core.Outcome
	proceeds          uint64
	proceedsWithdrawn bool
	receipt           []byte
}

// NewAuctionHouse wires the house to its collection and treasury
// collaborators.
func NewAuctionHouse(collection Minter, treasury Treasury, cfg Config) (*AuctionHouse, error) {
	if collection == nil || treasury == nil {
		return nil, fmt.Errorf("collection and treasury are required")
	}
	if cfg.TopK <= 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf("top-K bound must be positive, got %d", cfg.TopK)}
	}
	if cfg.TopK > core.MaxContenders {
		return nil, &ConfigError{Reason: fmt.Sprintf("top-K bound %d exceeds the %d maximum", cfg.TopK, core.MaxContenders)}
	}
	if cfg.Owner == "" {
		return nil, &ConfigError{Reason: "owner identity required"}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock()
	}
	return &AuctionHouse{
		clock:      clock,
		owner:      cfg.Owner,
		topK:       cfg.TopK,
		collection: collection,
		treasury:   treasury,
		signer:     cfg.Signer,
		sealedBids: make(map[string]*SealedBidRecord),
		admission:  core.NewBidAdmission(cfg.TopK),
	}, nil
}

// CreateAuction configures the auction timing and reserve price. Allowed only
// while the auction is uninitialized or still before the bidding window
// opens; the start time may move later but never earlier.
func (h *AuctionHouse) CreateAuction(startTime, bidPeriod, revealPeriod uint32, reservePrice uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now()
	if h.state.Status.Terminal() {
		return &PhaseError{Op: "createAuction", Status: h.state.Status, Now: now}
	}
	if h.created && now >= h.state.StartTime {
		return &ConfigError{Reason: "bidding has already opened"}
	}
	if startTime < now {
		return &ConfigError{Reason: fmt.Sprintf("start time %d is in the past (now %d)", startTime, now)}
	}
	if h.created && startTime < h.state.StartTime {
		return &ConfigError{Reason: "start time may only move later"}
	}
	if bidPeriod < MinPeriod {
		return &ConfigError{Reason: fmt.Sprintf("bid period %ds is below the %ds minimum", bidPeriod, MinPeriod)}
	}
	if revealPeriod < MinPeriod {
		return &ConfigError{Reason: fmt.Sprintf("reveal period %ds is below the %ds minimum", revealPeriod, MinPeriod)}
	}
	capacity := h.collection.Capacity()
	if capacity == 0 {
		return &ConfigError{Reason: "collection capacity is zero"}
	}
	if reservePrice > core.MaxBidValue/uint64(capacity) {
		return &ConfigError{Reason: fmt.Sprintf("reserve price %d too large for capacity %d", reservePrice, capacity)}
	}
	endOfBidding := uint64(startTime) + uint64(bidPeriod)
	endOfReveal := endOfBidding + uint64(revealPeriod)
	if endOfReveal > math.MaxUint32 {
		return &ConfigError{Reason: "auction timing overflows the timestamp width"}
	}

	if !h.created {
		h.state.AuctionID = uuid.NewString()
		h.created = true
	}
	h.state.StartTime = startTime
	h.state.EndOfBiddingPeriod = uint32(endOfBidding)
	h.state.EndOfRevealPeriod = uint32(endOfReveal)
	h.state.ReservePrice = reservePrice

	log.Printf("INFO: Auction %s configured: bidding [%d, %d], reveal (%d, %d], reserve %d",
		h.state.AuctionID, startTime, endOfBidding, endOfBidding, endOfReveal, reservePrice)
	return nil
}

// CommitBid stores a bidder's sealed commitment and escrows their collateral.
// Repeat commits replace the commitment and accumulate collateral. The
// collateral-versus-reserve check is deferred to reveal time.
func (h *AuctionHouse) CommitBid(bidder, commitment string, collateral uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now()
	if !h.created || h.state.Status.Terminal() || now < h.state.StartTime || now > h.state.EndOfBiddingPeriod {
		return &PhaseError{Op: "commitBid", Status: h.state.Status, Now: now}
	}
	if bidder == "" {
		return fmt.Errorf("bidder identity required")
	}
	if commitment == "" {
		return ErrZeroCommitment
	}

	record, ok := h.sealedBids[bidder]
	if !ok {
		record = &SealedBidRecord{}
		h.sealedBids[bidder] = record
	}
	if collateral > math.MaxUint64-record.Collateral {
		return fmt.Errorf("collateral for %s overflows the escrow balance", bidder)
	}
	record.Commitment = commitment
	record.Collateral += collateral
	log.Printf("INFO: Bidder %s committed (collateral %d)", bidder, record.Collateral)
	return nil
}

// RevealBid opens a commitment. A mismatched opening fails with both hashes.
// A matching opening whose bid is under-collateralized, below reserve, or out
// of quantity range is refunded in full and excluded rather than failed, so a
// badly formed reveal never traps the bidder's funds.
func (h *AuctionHouse) RevealBid(bidder, nonce string, value uint64, quantity uint32) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now()
	if !h.created || h.state.Status.Terminal() || now <= h.state.EndOfBiddingPeriod || now > h.state.EndOfRevealPeriod {
		return &PhaseError{Op: "revealBid", Status: h.state.Status, Now: now}
	}
	record, ok := h.sealedBids[bidder]
	if !ok || record.Commitment == "" {
		return fmt.Errorf("%w: %s", ErrNoSealedBid, bidder)
	}
	if record.Opened {
		return fmt.Errorf("bid for %s already revealed", bidder)
	}

	recomputed := core.ComputeBidCommitment(h.state.AuctionID, nonce, value, quantity)
	if recomputed != record.Commitment {
		return &OpeningMismatchError{Stored: record.Commitment, Recomputed: recomputed}
	}

	if reason := h.revealRejection(record, value, quantity); reason != "" {
		// Payout before mutating the record: a treasury failure must
		// leave the reveal retryable with the collateral intact.
		refund := record.Collateral
		if err := h.treasury.Payout(bidder, refund); err != nil {
			return fmt.Errorf("refund for excluded reveal of %s: %w", bidder, err)
		}
		record.Opened = true
		record.Collateral = 0
		log.Printf("INFO: Bid from %s excluded (%s), refunded %d", bidder, reason, refund)
		return nil
	}
	record.Opened = true

	contender := h.admission.Insert(core.RevealedBid{Bidder: bidder, Quantity: quantity, Value: value})
	log.Printf("INFO: Bid from %s revealed: value %d for %d units (contender=%t)",
		bidder, value, quantity, contender)
	return nil
}

// revealRejection returns a non-empty reason if the opened bid must be
// refunded and excluded from the optimizer.
func (h *AuctionHouse) revealRejection(record *SealedBidRecord, value uint64, quantity uint32) string {
	switch {
	case quantity == 0:
		return "zero quantity"
	case quantity > h.collection.Capacity():
		return "quantity exceeds collection capacity"
	case value > core.MaxBidValue:
		return "value exceeds bid limit"
	case value < h.state.ReservePrice*uint64(quantity):
		return "value below reserve"
	case record.Collateral < value:
		return "under-collateralized"
	default:
		return ""
	}
}

// EmergencyReveal marks the caller's commitment as opened without validating
// an opening, once the auction is no longer ongoing. The bidder forfeits any
// chance of having won but can withdraw their collateral.
func (h *AuctionHouse) EmergencyReveal(bidder string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now()
	if !h.state.Status.Terminal() {
		return &PhaseError{Op: "emergencyReveal", Status: h.state.Status, Now: now}
	}
	record, ok := h.sealedBids[bidder]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSealedBid, bidder)
	}
	record.Opened = true
	log.Printf("INFO: Emergency reveal for %s", bidder)
	return nil
}

// FinalizeAuction freezes the contender set, injects the reserve filler bids,
// runs the allocation optimizer and payment extraction, and transitions the
// auction to Finalized.
func (h *AuctionHouse) FinalizeAuction() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now()
	if !h.created || h.state.Status != StatusOngoing || now <= h.state.EndOfRevealPeriod {
		return &PhaseError{Op: "finalizeAuction", Status: h.state.Status, Now: now}
	}

	capacity := h.collection.Capacity()
	candidates := append(h.admission.Contenders(), core.ReserveFillerBids(h.state.ReservePrice, capacity)...)
	result, err := core.ComputeAllocation(candidates, capacity)
	if err != nil {
		return fmt.Errorf("finalize auction %s: %w", h.state.AuctionID, err)
	}

	var receipt []byte
	if h.signer != nil {
		receipt, err = h.signer.Sign(&OutcomeReceipt{
			AuctionID:    h.state.AuctionID,
			Capacity:     capacity,
			TopK:         h.topK,
			ReservePrice: h.state.ReservePrice,
			OptimalValue: result.OptimalValue,
			Proceeds:     result.Proceeds,
			Outcomes:     result.Outcomes,
			FinalizedAt:  now,
		})
		if err != nil {
			return fmt.Errorf("sign outcome receipt: %w", err)
		}
	}

	h.outcomes = result.Outcomes
	h.proceeds = result.Proceeds
	h.receipt = receipt
	h.state.Status = StatusFinalized
	log.Printf("INFO: Auction %s finalized: %d winners, %d units awarded, proceeds %d",
		h.state.AuctionID, len(result.Outcomes), result.TotalAwarded, result.Proceeds)
	return nil
}

// CancelAuction voids the auction after the reveal period: no winners, no
// payments, full refunds on withdrawal.
func (h *AuctionHouse) CancelAuction() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now()
	if !h.created || h.state.Status != StatusOngoing || now <= h.state.EndOfRevealPeriod {
		return &PhaseError{Op: "cancelAuction", Status: h.state.Status, Now: now}
	}
	h.state.Status = StatusCanceled
	log.Printf("INFO: Auction %s canceled", h.state.AuctionID)
	return nil
}

// WithdrawCollateral pays out the caller's collateral minus any owed payment.
// Requires a terminal auction and an opened commitment. Idempotent: a second
// call pays nothing.
func (h *AuctionHouse) WithdrawCollateral(bidder string) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now()
	if !h.state.Status.Terminal() {
		return 0, &PhaseError{Op: "withdrawCollateral", Status: h.state.Status, Now: now}
	}
	record, ok := h.sealedBids[bidder]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoSealedBid, bidder)
	}
	if !record.Opened {
		return 0, ErrUnrevealed
	}
	if record.Collateral == 0 {
		return 0, nil
	}

	payment := h.outcomes[bidder].Payment
	if payment > record.Collateral {
		return 0, fmt.Errorf("%w: payment %d exceeds collateral %d for %s",
			core.ErrInvariant, payment, record.Collateral, bidder)
	}
	refund := record.Collateral - payment
	// Payout before zeroing: a treasury failure must leave the collateral
	// withdrawable on retry.
	if err := h.treasury.Payout(bidder, refund); err != nil {
		return 0, fmt.Errorf("withdraw for %s: %w", bidder, err)
	}
	record.Collateral = 0
	log.Printf("INFO: Bidder %s withdrew %d (payment retained %d)", bidder, refund, payment)
	return refund, nil
}

// WithdrawProceeds transfers the accumulated non-dummy payments to the owner,
// once.
func (h *AuctionHouse) WithdrawProceeds(caller string) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now()
	if caller != h.owner {
		return 0, ErrNotOwner
	}
	if h.state.Status != StatusFinalized {
		return 0, &PhaseError{Op: "withdrawProceeds", Status: h.state.Status, Now: now}
	}
	if h.proceedsWithdrawn {
		return 0, nil
	}
	if err := h.treasury.Payout(h.owner, h.proceeds); err != nil {
		return 0, fmt.Errorf("withdraw proceeds: %w", err)
	}
	h.proceedsWithdrawn = true
	log.Printf("INFO: Owner withdrew proceeds %d", h.proceeds)
	return h.proceeds, nil
}

// Mint issues the caller's awarded units through the collection and zeroes
// the award so it cannot be minted twice.
func (h *AuctionHouse) Mint(bidder string) (uint32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now()
	if h.state.Status != StatusFinalized {
		return 0, &PhaseError{Op: "mint", Status: h.state.Status, Now: now}
	}
	outcome, ok := h.outcomes[bidder]
	if !ok || outcome.Amount == 0 {
		return 0, nil
	}
	if err := h.collection.Mint(bidder, outcome.Amount); err != nil {
		return 0, fmt.Errorf("mint for %s: %w", bidder, err)
	}
	h.outcomes[bidder] = core.Outcome{Payment: outcome.Payment, Amount: 0}
	log.Printf("INFO: Minted %d units for %s", outcome.Amount, bidder)
	return outcome.Amount, nil
}

// State returns a copy of the auction record.
func (h *AuctionHouse) State() AuctionState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// SealedBid returns a copy of a bidder's sealed-bid record.
func (h *AuctionHouse) SealedBid(bidder string) (SealedBidRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	record, ok := h.sealedBids[bidder]
	if !ok {
		return SealedBidRecord{}, false
	}
	return *record, true
}

// Outcome returns a bidder's finalization outcome. The zero Outcome means the
// bidder won nothing and owes nothing.
func (h *AuctionHouse) Outcome(bidder string) core.Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.outcomes[bidder]
}

// Receipt returns the COSE-encoded outcome receipt produced at finalization,
// or nil if the house has no signer or is not finalized.
func (h *AuctionHouse) Receipt() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.receipt
}

// RevealedBids returns the full admission record: contenders first, then
// non-contending reveals.
func (h *AuctionHouse) RevealedBids() []core.RevealedBid {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.admission.All()
}
