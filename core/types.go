package core

// MaxBidValue is the largest total bid value the optimizer accepts.
// Bounding individual values keeps every dynamic-programming cell, which sums
// at most one value per candidate, comfortably inside uint64.
const MaxBidValue uint64 = 1 << 48

// MaxContenders is the largest admission bound the house accepts. A DP cell
// sums at most one MaxBidValue per contender plus one per reserve filler, so
// the candidate count must stay below 2^64/MaxBidValue = 2^16 for the sums to
// be exact.
const MaxContenders = 1 << 15

// RevealedBid is a bid that passed the commit-reveal opening and the
// reveal-time validity checks. Value is the TOTAL amount bid for Quantity
// units, not a per-unit price.
type RevealedBid struct {
	Bidder   string `json:"bidder"`
	Quantity uint32 `json:"quantity"`
	Value    uint64 `json:"value"`

	// Dummy marks a reserve-price filler bid injected at finalization.
	// Dummy bids give the optimizer a full-capacity baseline but never
	// transact: they are excluded from outcomes and proceeds.
	Dummy bool `json:"dummy,omitempty"`
}

// Outcome is the finalization result for a single bidder.
type Outcome struct {
	// Payment is the VCG payment owed if the bidder won, 0 otherwise.
	Payment uint64 `json:"payment"`
	// Amount is the quantity of units awarded, 0 for non-winners.
	Amount uint32 `json:"amount"`
}

// AllocationResult is the full output of one finalization run.
type AllocationResult struct {
	// Outcomes maps each winning bidder to their payment and award.
	// Bidders absent from the map won nothing and owe nothing.
	Outcomes map[string]Outcome `json:"outcomes"`

	// OptimalValue is the value of the optimal allocation, dummy bids
	// included.
	OptimalValue uint64 `json:"optimal_value"`

	// Proceeds is the sum of all non-dummy payments, i.e. the amount the
	// auctioneer may withdraw.
	Proceeds uint64 `json:"proceeds"`

	// TotalAwarded is the total quantity awarded to real bidders.
	TotalAwarded uint32 `json:"total_awarded"`
}
