package house

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/veraison/go-cose"

	"github.com/cloudx-io/sealedbid/core"
)

// OutcomeReceipt is the finalization record the house signs so bidders can
// verify the published allocation off-chain.
type OutcomeReceipt struct {
	AuctionID    string                  `json:"auction_id"`
	Capacity     uint32                  `json:"capacity"`
	TopK         int                     `json:"top_k"`
	ReservePrice uint64                  `json:"reserve_price"`
	OptimalValue uint64                  `json:"optimal_value"`
	Proceeds     uint64                  `json:"proceeds"`
	Outcomes     map[string]core.Outcome `json:"outcomes"`
	FinalizedAt  uint32                  `json:"finalized_at"`
}

// ReceiptSigner signs outcome receipts as COSE_Sign1 messages with ES256.
type ReceiptSigner struct {
	key *ecdsa.PrivateKey
}

// GenerateReceiptKey creates a fresh ECDSA P-256 signing key.
func GenerateReceiptKey() (*ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate receipt key: %w", err)
	}
	return key, nil
}

// NewReceiptSigner wraps an ECDSA P-256 key for receipt signing.
func NewReceiptSigner(key *ecdsa.PrivateKey) (*ReceiptSigner, error) {
	if key == nil {
		return nil, fmt.Errorf("receipt signing key required")
	}
	return &ReceiptSigner{key: key}, nil
}

// PublicKey returns the verification key for signed receipts.
func (s *ReceiptSigner) PublicKey() *ecdsa.PublicKey {
	return &s.key.PublicKey
}

// Sign encodes the receipt as canonical JSON and wraps it in a COSE_Sign1
// envelope.
func (s *ReceiptSigner) Sign(receipt *OutcomeReceipt) ([]byte, error) {
	payload, err := json.Marshal(receipt)
	if err != nil {
		return nil, fmt.Errorf("marshal receipt payload: %w", err)
	}

	signer, err := cose.NewSigner(cose.AlgorithmES256, s.key)
	if err != nil {
		return nil, fmt.Errorf("create COSE signer: %w", err)
	}

	msg := cose.NewSign1Message()
	msg.Headers.Protected.SetAlgorithm(cose.AlgorithmES256)
	msg.Payload = payload
	if err := msg.Sign(rand.Reader, nil, signer); err != nil {
		return nil, fmt.Errorf("sign receipt: %w", err)
	}

	data, err := msg.MarshalCBOR()
	if err != nil {
		return nil, fmt.Errorf("encode signed receipt: %w", err)
	}
	return data, nil
}
