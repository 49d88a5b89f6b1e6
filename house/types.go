package house

import "time"

// Status is the lifecycle status of the auction. Transitions only move
// forward: Ongoing to Finalized or Canceled, never out of a terminal state.
type Status uint8

const (
	StatusOngoing Status = iota
	StatusFinalized
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusOngoing:
		return "ongoing"
	case StatusFinalized:
		return "finalized"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool { return s != StatusOngoing }

// MinPeriod is the minimum length of the bidding and reveal windows, in
// seconds.
const MinPeriod uint32 = 3600

// AuctionState is the singleton auction record. Timestamps are unix seconds.
type AuctionState struct {
	AuctionID          string `json:"auction_id" cbor:"1,keyasint"`
	StartTime          uint32 `json:"start_time" cbor:"2,keyasint"`
	EndOfBiddingPeriod uint32 `json:"end_of_bidding_period" cbor:"3,keyasint"`
	EndOfRevealPeriod  uint32 `json:"end_of_reveal_period" cbor:"4,keyasint"`
	ReservePrice       uint64 `json:"reserve_price" cbor:"5,keyasint"`
	Status             Status `json:"status" cbor:"6,keyasint"`
}

// SealedBidRecord tracks one bidder's commitment and escrowed collateral.
// Created on first commit, mutated on repeat commits, marked opened on
// reveal.
type SealedBidRecord struct {
	Commitment string `json:"commitment" cbor:"1,keyasint"`
	Collateral uint64 `json:"collateral" cbor:"2,keyasint"`
	Opened     bool   `json:"opened" cbor:"3,keyasint"`
}

// Clock supplies the current time in unix seconds. The interface enables
// deterministic phase-window tests.
type Clock interface {
	Now() uint32
}

// systemClock is the production clock.
type systemClock struct{}

func (systemClock) Now() uint32 { return uint32(time.Now().Unix()) }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }
