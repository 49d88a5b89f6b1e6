package core

import (
	"math/rand"
	"testing"

	"github.com/peterldowns/testy/check"
)

// finalizeCandidates mimics the finalization path: run every bid through
// admission, then append the reserve filler bids to the contender window.
func finalizeCandidates(bids []RevealedBid, topK int, reserve uint64, capacity uint32) []RevealedBid {
	admission := NewBidAdmission(topK)
	for _, bid := range bids {
		admission.Insert(bid)
	}
	return append(admission.Contenders(), ReserveFillerBids(reserve, capacity)...)
}

func TestReserveFillerBids_PowersOfTwoCoverCapacity(t *testing.T) {
	fillers := ReserveFillerBids(3, 8)

	check.Equal(t, 4, len(fillers)) // quantities 1, 2, 4, 8
	var quantities []uint32
	for _, filler := range fillers {
		check.True(t, filler.Dummy)
		check.Equal(t, 3*uint64(filler.Quantity), filler.Value)
		quantities = append(quantities, filler.Quantity)
	}
	check.Equal(t, []uint32{1, 2, 4, 8}, quantities)
}

func TestReserveFillerBids_CapacityOne(t *testing.T) {
	fillers := ReserveFillerBids(5, 1)
	check.Equal(t, 1, len(fillers))
	check.Equal(t, uint32(1), fillers[0].Quantity)
	check.Equal(t, uint64(5), fillers[0].Value)
}

func TestComputeAllocation_Empty(t *testing.T) {
	result, err := ComputeAllocation(nil, 4)

	check.Nil(t, err)
	check.Equal(t, uint64(0), result.OptimalValue)
	check.Equal(t, uint64(0), result.Proceeds)
	check.Equal(t, 0, len(result.Outcomes))
}

// Concrete scenario: 3 single-unit bidders, capacity 2, reserve 1. The top
// two bids win and each pays the second-price equivalent set by the loser.
func TestComputeAllocation_SecondPriceScenario(t *testing.T) {
	bids := []RevealedBid{
		{Bidder: "a", Quantity: 1, Value: 3},
		{Bidder: "b", Quantity: 1, Value: 5},
		{Bidder: "c", Quantity: 1, Value: 2},
	}
	candidates := finalizeCandidates(bids, 8, 1, 2)

	result, err := ComputeAllocation(candidates, 2)
	check.Nil(t, err)

	check.Equal(t, 2, len(result.Outcomes))
	check.Equal(t, Outcome{Payment: 2, Amount: 1}, result.Outcomes["a"])
	check.Equal(t, Outcome{Payment: 2, Amount: 1}, result.Outcomes["b"])
	check.Equal(t, uint64(4), result.Proceeds)
	check.Equal(t, uint32(2), result.TotalAwarded)

	_, lost := result.Outcomes["c"]
	check.False(t, lost)
}

// Concrete scenario: multi-unit demands must be packed by value, not by
// picking the highest individual bids.
func TestComputeAllocation_MultiUnitPacking(t *testing.T) {
	bids := []RevealedBid{
		{Bidder: "a", Quantity: 2, Value: 4},
		{Bidder: "b", Quantity: 2, Value: 5},
		{Bidder: "c", Quantity: 2, Value: 6},
		{Bidder: "d", Quantity: 2, Value: 7},
		{Bidder: "e", Quantity: 1, Value: 8},
		{Bidder: "f", Quantity: 1, Value: 9},
	}
	candidates := finalizeCandidates(bids, 8, 1, 4)

	result, err := ComputeAllocation(candidates, 4)
	check.Nil(t, err)

	// Best packing of capacity 4: f(1)=9, e(1)=8, d(2)=7 for 24 total.
	check.Equal(t, uint32(4), result.TotalAwarded)
	check.Equal(t, uint32(1), result.Outcomes["f"].Amount)
	check.Equal(t, uint32(1), result.Outcomes["e"].Amount)
	check.Equal(t, uint32(2), result.Outcomes["d"].Amount)
	_, won := result.Outcomes["c"]
	check.False(t, won)
}

func TestComputeAllocation_ReserveFloorsPayments(t *testing.T) {
	// A lone bidder with no competition still pays the reserve per unit,
	// because the filler bids stand in as the counterfactual allocation.
	bids := []RevealedBid{{Bidder: "a", Quantity: 2, Value: 100}}
	candidates := finalizeCandidates(bids, 4, 3, 4)

	result, err := ComputeAllocation(candidates, 4)
	check.Nil(t, err)

	outcome := result.Outcomes["a"]
	check.Equal(t, uint32(2), outcome.Amount)
	check.Equal(t, uint64(6), outcome.Payment) // reserve 3 x 2 units
}

func TestComputeAllocation_DummiesNeverTransact(t *testing.T) {
	// No real bids at all: fillers win everything but produce no outcomes
	// and no proceeds.
	candidates := finalizeCandidates(nil, 4, 2, 4)

	result, err := ComputeAllocation(candidates, 4)
	check.Nil(t, err)

	check.Equal(t, 0, len(result.Outcomes))
	check.Equal(t, uint64(0), result.Proceeds)
	check.Equal(t, uint32(0), result.TotalAwarded)
	check.Equal(t, uint64(8), result.OptimalValue) // capacity filled at reserve
}

func TestComputeAllocation_TruthfulnessAndCapacityBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 50; trial++ {
		capacity := uint32(1 + rng.Intn(12))
		reserve := uint64(rng.Intn(5))
		var bids []RevealedBid
		for b := 0; b < 1+rng.Intn(10); b++ {
			quantity := uint32(1 + rng.Intn(int(capacity)))
			minValue := reserve * uint64(quantity)
			bids = append(bids, RevealedBid{
				Bidder:   string(rune('a' + b)),
				Quantity: quantity,
				Value:    minValue + uint64(rng.Intn(40)),
			})
		}
		candidates := finalizeCandidates(bids, 6, reserve, capacity)

		result, err := ComputeAllocation(candidates, capacity)
		check.Nil(t, err)
		check.True(t, result.TotalAwarded <= capacity)

		byName := map[string]RevealedBid{}
		for _, bid := range bids {
			byName[bid.Bidder] = bid
		}
		for bidder, outcome := range result.Outcomes {
			// 0 <= payment <= declared value.
			check.True(t, outcome.Payment <= byName[bidder].Value)
			// Per-unit price >= reserve.
			check.True(t, outcome.Payment >= reserve*uint64(outcome.Amount))
		}
	}
}

// Reveal order must not change who wins or what they pay, only which heap
// slot each contender occupies.
func TestComputeAllocation_PermutationInvariance(t *testing.T) {
	bids := []RevealedBid{
		{Bidder: "a", Quantity: 2, Value: 11},
		{Bidder: "b", Quantity: 1, Value: 7},
		{Bidder: "c", Quantity: 3, Value: 15},
		{Bidder: "d", Quantity: 1, Value: 4},
		{Bidder: "e", Quantity: 2, Value: 9},
	}
	const capacity = 5
	const reserve = 2

	baseline, err := ComputeAllocation(finalizeCandidates(bids, 4, reserve, capacity), capacity)
	check.Nil(t, err)

	rng := rand.New(rand.NewSource(99))
	for trial := 0; trial < 20; trial++ {
		shuffled := make([]RevealedBid, len(bids))
		copy(shuffled, bids)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		result, err := ComputeAllocation(finalizeCandidates(shuffled, 4, reserve, capacity), capacity)
		check.Nil(t, err)
		check.Equal(t, baseline.OptimalValue, result.OptimalValue)
		check.Equal(t, baseline.Proceeds, result.Proceeds)
		check.Equal(t, baseline.TotalAwarded, result.TotalAwarded)
		check.Equal(t, baseline.Outcomes, result.Outcomes)
	}
}

func TestComputeAllocation_RejectsOversizedQuantity(t *testing.T) {
	_, err := ComputeAllocation([]RevealedBid{{Bidder: "a", Quantity: 9, Value: 5}}, 4)
	check.Error(t, err)
}
