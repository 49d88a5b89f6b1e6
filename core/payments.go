package core

import (
	"errors"
	"fmt"
)

// ErrInvariant signals a defect in the optimizer or its preconditions, such
// as a payment exceeding the declared bid value or an allocation exceeding
// capacity. These conditions are unreachable by construction; callers should
// treat the error as fatal rather than recover from it.
var ErrInvariant = errors.New("allocation invariant violated")

// ReserveFillerBids builds the dummy reserve-price bids injected ahead of
// finalization: one bid per power-of-two quantity up to capacity, each valued
// at reserve per unit. Together they can fill any remaining capacity at the
// reserve price, which guarantees the optimizer a full-capacity baseline and
// bounds every winning per-unit payment below by the reserve.
func ReserveFillerBids(reserve uint64, capacity uint32) []RevealedBid {
	var fillers []RevealedBid
	for q := uint32(1); q <= capacity; q *= 2 {
		fillers = append(fillers, RevealedBid{
			Quantity: q,
			Value:    reserve * uint64(q),
			Dummy:    true,
		})
		if q > capacity/2 {
			break
		}
	}
	return fillers
}

// ComputeAllocation runs the full finalization computation over a frozen
// candidate order: forward and backward knapsack tables, winner backtrace,
// and per-winner VCG payments.
//
// Each winner pays the externality they impose: the best value the other
// candidates could have achieved without the winner present, minus the value
// the others actually received in the optimal allocation. The counterfactual
// "value without winner i" combines the forward row of the candidates before
// i with the backward row of the candidates after i across every capacity
// split, so no per-winner knapsack recomputation is needed.
//
// Dummy candidates may win capacity but are excluded from the outcome map,
// the proceeds total, and the awarded total. An empty candidate list yields
// an empty result.
func ComputeAllocation(bids []RevealedBid, capacity uint32) (*AllocationResult, error) {
	result := &AllocationResult{Outcomes: make(map[string]Outcome)}
	n := len(bids)
	if n == 0 {
		return result, nil
	}
	for i, bid := range bids {
		if bid.Quantity == 0 || bid.Quantity > capacity {
			return nil, fmt.Errorf("%w: candidate %d has quantity %d outside (0, %d]",
				ErrInvariant, i, bid.Quantity, capacity)
		}
		if bid.Value > MaxBidValue {
			return nil, fmt.Errorf("%w: candidate %d value %d exceeds limit %d",
				ErrInvariant, i, bid.Value, MaxBidValue)
		}
	}

	c := int(capacity)
	forward := ComputeForward(bids, capacity)
	backward := ComputeBackward(bids, capacity)
	optval := forward[n-1][c]

	// Standard knapsack backtrace from (n-1, C): candidate i is included
	// iff its forward row differs from the previous row at the remaining
	// capacity level.
	winners := make([]bool, n)
	remaining := c
	for i := n - 1; i >= 0; i-- {
		var without uint64
		if i > 0 {
			without = forward[i-1][remaining]
		}
		if forward[i][remaining] != without {
			winners[i] = true
			remaining -= int(bids[i].Quantity)
			if remaining < 0 {
				return nil, fmt.Errorf("%w: backtrace exceeded capacity %d", ErrInvariant, capacity)
			}
		}
	}

	var awarded uint32
	for i := 0; i < n; i++ {
		if !winners[i] {
			continue
		}
		bid := bids[i]

		// Best value achievable by everyone else without candidate i.
		// Boundary candidates need no capacity-split scan: one side of
		// the combination has no candidates at all.
		var valueWithout uint64
		switch {
		case n == 1:
			valueWithout = 0
		case i == 0:
			valueWithout = backward[1][c]
		case i == n-1:
			valueWithout = forward[n-2][c]
		default:
			before := forward[i-1]
			after := backward[i+1]
			for k := 0; k <= c; k++ {
				if sum := before[k] + after[c-k]; sum > valueWithout {
					valueWithout = sum
				}
			}
		}

		// Value the others actually received alongside candidate i.
		othersWith := optval - bid.Value
		if valueWithout < othersWith {
			return nil, fmt.Errorf("%w: negative payment for candidate %d (%d < %d)",
				ErrInvariant, i, valueWithout, othersWith)
		}
		payment := valueWithout - othersWith
		if payment > bid.Value {
			return nil, fmt.Errorf("%w: payment %d exceeds declared value %d for candidate %d",
				ErrInvariant, payment, bid.Value, i)
		}

		if bid.Dummy {
			continue
		}
		result.Outcomes[bid.Bidder] = Outcome{Payment: payment, Amount: bid.Quantity}
		result.Proceeds += payment
		awarded += bid.Quantity
	}
	if awarded > capacity {
		return nil, fmt.Errorf("%w: awarded %d units with capacity %d", ErrInvariant, awarded, capacity)
	}

	result.OptimalValue = optval
	result.TotalAwarded = awarded
	return result, nil
}
