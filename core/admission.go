package core

import "math/bits"

// BidAdmission tracks revealed bids under a fixed contender bound.
//
// The structure is an append-only list whose first topK entries form a binary
// min-heap keyed by per-unit value. While under capacity every inserted bid
// joins the heap. Once full, a new bid only enters if its per-unit value
// strictly exceeds the current minimum: the evicted minimum moves to the tail
// of the list and stays there for record keeping. Bids that never enter the
// heap are appended to the tail directly.
//
// Insertion therefore never fails; it only classifies a bid as contending
// (heap prefix) or non-contending (tail). Ties on per-unit value favor the
// earlier-inserted bid.
type BidAdmission struct {
	topK int
	bids []RevealedBid
}

// NewBidAdmission creates an admission structure keeping at most topK
// contending bids.
func NewBidAdmission(topK int) *BidAdmission {
	if topK <= 0 {
		panic("sealedbid: admission bound must be positive")
	}
	return &BidAdmission{topK: topK}
}

// RestoreBidAdmission rebuilds an admission structure from a previously
// captured layout (see All). The slice must have been produced by the same
// topK bound; the heap prefix is trusted as-is.
func RestoreBidAdmission(topK int, bids []RevealedBid) *BidAdmission {
	a := NewBidAdmission(topK)
	a.bids = append(a.bids, bids...)
	return a
}

// perUnitGreater reports whether a's per-unit value (Value/Quantity) strictly
// exceeds b's. The comparison cross-multiplies in 128 bits so no division or
// floating point is involved.
func perUnitGreater(a, b RevealedBid) bool {
	hiA, loA := bits.Mul64(a.Value, uint64(b.Quantity))
	hiB, loB := bits.Mul64(b.Value, uint64(a.Quantity))
	if hiA != hiB {
		return hiA > hiB
	}
	return loA > loB
}

// Insert adds a revealed bid, evicting the cheapest contender if the heap is
// full and the new bid outbids it per unit. Returns true if the bid is a
// contender after insertion.
func (a *BidAdmission) Insert(bid RevealedBid) bool {
	if len(a.bids) < a.topK {
		a.bids = append(a.bids, bid)
		a.siftUp(len(a.bids) - 1)
		return true
	}
	if perUnitGreater(bid, a.bids[0]) {
		evicted := a.bids[0]
		a.bids[0] = bid
		a.siftDown(0)
		a.bids = append(a.bids, evicted)
		return true
	}
	a.bids = append(a.bids, bid)
	return false
}

// Len returns the total number of bids inserted, contending or not.
func (a *BidAdmission) Len() int { return len(a.bids) }

// Contenders returns a copy of the current top-K window. The slice is in heap
// order, not sorted; every entry has per-unit value >= every non-contending
// entry.
func (a *BidAdmission) Contenders() []RevealedBid {
	n := min(len(a.bids), a.topK)
	out := make([]RevealedBid, n)
	copy(out, a.bids[:n])
	return out
}

// All returns a copy of the full insertion record: the heap prefix followed
// by every non-contending bid in the order it left (or never entered) the
// contender window.
func (a *BidAdmission) All() []RevealedBid {
	out := make([]RevealedBid, len(a.bids))
	copy(out, a.bids)
	return out
}

// TopK returns the contender bound the structure was created with.
func (a *BidAdmission) TopK() int { return a.topK }

func (a *BidAdmission) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !perUnitGreater(a.bids[parent], a.bids[i]) {
			return
		}
		a.bids[parent], a.bids[i] = a.bids[i], a.bids[parent]
		i = parent
	}
}

func (a *BidAdmission) siftDown(i int) {
	n := min(len(a.bids), a.topK)
	for {
		smallest := i
		if l := 2*i + 1; l < n && perUnitGreater(a.bids[smallest], a.bids[l]) {
			smallest = l
		}
		if r := 2*i + 2; r < n && perUnitGreater(a.bids[smallest], a.bids[r]) {
			smallest = r
		}
		if smallest == i {
			return
		}
		a.bids[i], a.bids[smallest] = a.bids[smallest], a.bids[i]
		i = smallest
	}
}
