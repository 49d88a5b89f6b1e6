package verify

import (
	"fmt"

	"github.com/cloudx-io/sealedbid/core"
	"github.com/cloudx-io/sealedbid/house"
)

// Replay recomputes the allocation from a published revealed-bid list using
// the receipt's parameters. The bid list may be in any order: admission plus
// the optimizer are permutation independent for distinct-valued bids, so a
// replay from the public record must land on the same outcomes.
func Replay(bids []core.RevealedBid, receipt *house.OutcomeReceipt) (*core.AllocationResult, error) {
	admission := core.NewBidAdmission(receipt.TopK)
	for _, bid := range bids {
		if bid.Dummy {
			return nil, fmt.Errorf("revealed bid list must not contain dummy bids")
		}
		admission.Insert(bid)
	}
	candidates := append(admission.Contenders(),
		core.ReserveFillerBids(receipt.ReservePrice, receipt.Capacity)...)
	return core.ComputeAllocation(candidates, receipt.Capacity)
}

// CheckReceipt replays the revealed bids and compares every aggregate the
// receipt asserts. A nil return means the receipt is consistent with the
// public bid record.
func CheckReceipt(bids []core.RevealedBid, receipt *house.OutcomeReceipt) error {
	result, err := Replay(bids, receipt)
	if err != nil {
		return fmt.Errorf("replay allocation: %w", err)
	}
	if result.OptimalValue != receipt.OptimalValue {
		return fmt.Errorf("optimal value mismatch: replayed %d, receipt %d",
			result.OptimalValue, receipt.OptimalValue)
	}
	if result.Proceeds != receipt.Proceeds {
		return fmt.Errorf("proceeds mismatch: replayed %d, receipt %d",
			result.Proceeds, receipt.Proceeds)
	}
	if len(result.Outcomes) != len(receipt.Outcomes) {
		return fmt.Errorf("winner count mismatch: replayed %d, receipt %d",
			len(result.Outcomes), len(receipt.Outcomes))
	}
	for bidder, want := range receipt.Outcomes {
		got, ok := result.Outcomes[bidder]
		if !ok {
			return fmt.Errorf("receipt names winner %s the replay does not", bidder)
		}
		if got != want {
			return fmt.Errorf("outcome mismatch for %s: replayed %+v, receipt %+v", bidder, got, want)
		}
	}
	return nil
}
