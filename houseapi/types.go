package houseapi

// Wire types for the auction house server. Every request carries a "type"
// discriminator; the server dispatches on it and answers with OpResponse or
// one of the view types. Monetary fields travel as decimal strings (see
// ParseAmount); timestamps are unix seconds.

// Request type discriminators.
const (
	TypePing               = "ping"
	TypeCreateAuction      = "create_auction"
	TypeCommitBid          = "commit_bid"
	TypeRevealBid          = "reveal_bid"
	TypeEmergencyReveal    = "emergency_reveal"
	TypeFinalizeAuction    = "finalize_auction"
	TypeCancelAuction      = "cancel_auction"
	TypeWithdrawCollateral = "withdraw_collateral"
	TypeWithdrawProceeds   = "withdraw_proceeds"
	TypeMint               = "mint"
	TypeAuctionStatus      = "auction_status"
)

// BaseRequest is decoded first to pick the handler.
type BaseRequest struct {
	Type string `json:"type"`
}

type CreateAuctionRequest struct {
	Type         string `json:"type"`
	StartTime    uint32 `json:"start_time"`
	BidPeriod    uint32 `json:"bid_period"`
	RevealPeriod uint32 `json:"reveal_period"`
	ReservePrice string `json:"reserve_price"`
}

type CommitBidRequest struct {
	Type       string `json:"type"`
	Bidder     string `json:"bidder"`
	Commitment string `json:"commitment"`
	Collateral string `json:"collateral"`
}

type RevealBidRequest struct {
	Type     string `json:"type"`
	Bidder   string `json:"bidder"`
	Nonce    string `json:"nonce"`
	Value    string `json:"value"`
	Quantity uint32 `json:"quantity"`
}

type BidderRequest struct {
	Type   string `json:"type"`
	Bidder string `json:"bidder"`
}

type OwnerRequest struct {
	Type   string `json:"type"`
	Caller string `json:"caller"`
}

// OpResponse is the uniform reply for state-changing operations.
type OpResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	// Amount reports a refund, proceeds, or minted count where the
	// operation produces one. Monetary amounts are decimal strings,
	// minted counts plain integers rendered as strings.
	Amount string `json:"amount,omitempty"`
}

// AuctionStatusResponse mirrors the auction record for status queries.
type AuctionStatusResponse struct {
	Type               string `json:"type"`
	AuctionID          string `json:"auction_id"`
	StartTime          uint32 `json:"start_time"`
	EndOfBiddingPeriod uint32 `json:"end_of_bidding_period"`
	EndOfRevealPeriod  uint32 `json:"end_of_reveal_period"`
	ReservePrice       string `json:"reserve_price"`
	Status             string `json:"status"`
	Capacity           uint32 `json:"capacity"`
	// ReceiptCOSEBase64 is the base64-encoded COSE_Sign1 outcome receipt,
	// present once the auction is finalized with a signing key.
	ReceiptCOSEBase64 string `json:"receipt_cose_base64,omitempty"`
}
