package core

import (
	"crypto/sha256"
	"fmt"
)

// ComputeBidCommitment computes the sealed-bid commitment hash binding an
// opening to a specific auction.
//
// Formula: SHA256(auction_id + "|" + nonce + "|" + value + "|" + quantity)
//
// Value and quantity are formatted as decimal integers so the hash is
// independent of in-memory representation. The reveal phase recomputes this
// hash from the supplied opening and compares it against the stored
// commitment.
func ComputeBidCommitment(auctionID, nonce string, value uint64, quantity uint32) string {
	data := fmt.Sprintf("%s|%s|%d|%d", auctionID, nonce, value, quantity)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
