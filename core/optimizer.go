package core

// ComputeForward fills the forward knapsack table over the given candidate
// order: forward[i][c] is the best total value achievable using only
// candidates 0..i with total quantity <= c. Each candidate is all-or-nothing.
//
// The table is O(n*C) in time and space. An empty candidate list yields an
// empty table.
func ComputeForward(bids []RevealedBid, capacity uint32) [][]uint64 {
	n := len(bids)
	c := int(capacity)
	table := make([][]uint64, n)
	prev := make([]uint64, c+1) // zero baseline: no prior candidates
	for i := 0; i < n; i++ {
		row := make([]uint64, c+1)
		q := int(bids[i].Quantity)
		v := bids[i].Value
		for budget := 0; budget <= c; budget++ {
			best := prev[budget]
			if budget >= q {
				if with := prev[budget-q] + v; with > best {
					best = with
				}
			}
			row[budget] = best
		}
		table[i] = row
		prev = row
	}
	return table
}

// ComputeBackward fills the symmetric table from the opposite end:
// backward[i][c] is the best total value achievable using only candidates
// i..n-1 with total quantity <= c. The recurrence mirrors ComputeForward so
// backward[0][capacity] equals forward[n-1][capacity].
func ComputeBackward(bids []RevealedBid, capacity uint32) [][]uint64 {
	n := len(bids)
	c := int(capacity)
	table := make([][]uint64, n)
	prev := make([]uint64, c+1) // zero baseline: no later candidates
	for i := n - 1; i >= 0; i-- {
		row := make([]uint64, c+1)
		q := int(bids[i].Quantity)
		v := bids[i].Value
		for budget := 0; budget <= c; budget++ {
			best := prev[budget]
			if budget >= q {
				if with := prev[budget-q] + v; with > best {
					best = with
				}
			}
			row[budget] = best
		}
		table[i] = row
		prev = row
	}
	return table
}
