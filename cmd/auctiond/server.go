package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/mdlayher/vsock"

	"github.com/cloudx-io/sealedbid/house"
	"github.com/cloudx-io/sealedbid/houseapi"
)

// AuctionServer serves the auction house operations over vsock with
// newline-free JSON request/response framing: one request per connection.
type AuctionServer struct {
	port         uint32
	house        *house.AuctionHouse
	capacity     uint32
	snapshotPath string
}

// NewAuctionServer wires a server to an auction house.
func NewAuctionServer(port uint32, h *house.AuctionHouse, capacity uint32, snapshotPath string) *AuctionServer {
	return &AuctionServer{port: port, house: h, capacity: capacity, snapshotPath: snapshotPath}
}

func (s *AuctionServer) Start() error {
	listener, err := vsock.Listen(s.port, nil)
	if err != nil {
		return fmt.Errorf("failed to create vsock listener: %w", err)
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Printf("ERROR: Failed to close listener: %v", err)
		}
	}()

	log.Printf("INFO: Auction server listening on vsock port %d", s.port)

	maxWorkers, err := getRequiredEnvInt("AUCTIOND_MAX_WORKERS")
	if err != nil {
		return fmt.Errorf("failed to get max workers config: %w", err)
	}
	semaphore := make(chan struct{}, maxWorkers)

	log.Printf("INFO: Worker pool initialized with %d max concurrent workers", maxWorkers)

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Printf("ERROR: Failed to accept vsock connection: %v", err)
			continue
		}

		// Acquire worker slot - immediate rejection if pool full
		select {
		case semaphore <- struct{}{}:
			go func(c net.Conn) {
				defer func() { <-semaphore }() // Release worker slot
				s.handleConnection(c)
			}(conn)
		default:
			log.Printf("INFO: No workers available, rejecting connection (pool full)")
			if err := conn.Close(); err != nil {
				log.Printf("ERROR: Failed to close rejected connection: %v", err)
			}
		}
	}
}

func (s *AuctionServer) handleConnection(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: Panic recovered in handleConnection: %v", r)
		}
		if err := conn.Close(); err != nil {
			log.Printf("ERROR: Failed to close connection: %v", err)
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, conn); err != nil {
		log.Printf("ERROR: Failed to read request: %v", err)
		return
	}

	var baseReq houseapi.BaseRequest
	if err := json.Unmarshal(buf.Bytes(), &baseReq); err != nil {
		log.Printf("ERROR: Failed to decode base request: %v", err)
		return
	}

	log.Printf("INFO: Received request type: %s", baseReq.Type)

	response := s.dispatch(baseReq.Type, buf.Bytes())

	if s.snapshotPath != "" && stateChanging(baseReq.Type) {
		if err := s.house.SaveSnapshot(s.snapshotPath); err != nil {
			log.Printf("ERROR: Failed to save snapshot: %v", err)
		}
	}

	encoder := json.NewEncoder(conn)
	if err := encoder.Encode(response); err != nil {
		log.Printf("ERROR: Failed to encode response: %v", err)
	} else {
		log.Printf("INFO: Successfully sent response for %s", baseReq.Type)
	}
}

// stateChanging reports whether a request type mutates the house and should
// trigger a snapshot write.
func stateChanging(reqType string) bool {
	switch reqType {
	case houseapi.TypePing, houseapi.TypeAuctionStatus:
		return false
	default:
		return true
	}
}

func (s *AuctionServer) dispatch(reqType string, raw []byte) any {
	switch reqType {
	case houseapi.TypePing:
		return map[string]any{
			"type":      "pong",
			"message":   "auction server is healthy",
			"timestamp": time.Now().Unix(),
		}

	case houseapi.TypeCreateAuction:
		var req houseapi.CreateAuctionRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return failure(reqType, fmt.Errorf("decode request: %w", err))
		}
		reserve, err := houseapi.ParseAmount(req.ReservePrice)
		if err != nil {
			return failure(reqType, err)
		}
		return opResult(reqType, s.house.CreateAuction(req.StartTime, req.BidPeriod, req.RevealPeriod, reserve))

	case houseapi.TypeCommitBid:
		var req houseapi.CommitBidRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return failure(reqType, fmt.Errorf("decode request: %w", err))
		}
		collateral, err := houseapi.ParseAmount(req.Collateral)
		if err != nil {
			return failure(reqType, err)
		}
		return opResult(reqType, s.house.CommitBid(req.Bidder, req.Commitment, collateral))

	case houseapi.TypeRevealBid:
		var req houseapi.RevealBidRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return failure(reqType, fmt.Errorf("decode request: %w", err))
		}
		value, err := houseapi.ParseAmount(req.Value)
		if err != nil {
			return failure(reqType, err)
		}
		return opResult(reqType, s.house.RevealBid(req.Bidder, req.Nonce, value, req.Quantity))

	case houseapi.TypeEmergencyReveal:
		var req houseapi.BidderRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return failure(reqType, fmt.Errorf("decode request: %w", err))
		}
		return opResult(reqType, s.house.EmergencyReveal(req.Bidder))

	case houseapi.TypeFinalizeAuction:
		return opResult(reqType, s.house.FinalizeAuction())

	case houseapi.TypeCancelAuction:
		return opResult(reqType, s.house.CancelAuction())

	case houseapi.TypeWithdrawCollateral:
		var req houseapi.BidderRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return failure(reqType, fmt.Errorf("decode request: %w", err))
		}
		refund, err := s.house.WithdrawCollateral(req.Bidder)
		if err != nil {
			return failure(reqType, err)
		}
		return houseapi.OpResponse{Type: reqType, Success: true, Amount: houseapi.FormatAmount(refund)}

	case houseapi.TypeWithdrawProceeds:
		var req houseapi.OwnerRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return failure(reqType, fmt.Errorf("decode request: %w", err))
		}
		proceeds, err := s.house.WithdrawProceeds(req.Caller)
		if err != nil {
			return failure(reqType, err)
		}
		return houseapi.OpResponse{Type: reqType, Success: true, Amount: houseapi.FormatAmount(proceeds)}

	case houseapi.TypeMint:
		var req houseapi.BidderRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return failure(reqType, fmt.Errorf("decode request: %w", err))
		}
		minted, err := s.house.Mint(req.Bidder)
		if err != nil {
			return failure(reqType, err)
		}
		return houseapi.OpResponse{Type: reqType, Success: true, Amount: strconv.FormatUint(uint64(minted), 10)}

	case houseapi.TypeAuctionStatus:
		return s.statusResponse()

	default:
		return map[string]any{
			"type":    "error",
			"message": fmt.Sprintf("Unknown request type: %s", reqType),
		}
	}
}

func (s *AuctionServer) statusResponse() houseapi.AuctionStatusResponse {
	state := s.house.State()
	resp := houseapi.AuctionStatusResponse{
		Type:               houseapi.TypeAuctionStatus,
		AuctionID:          state.AuctionID,
		StartTime:          state.StartTime,
		EndOfBiddingPeriod: state.EndOfBiddingPeriod,
		EndOfRevealPeriod:  state.EndOfRevealPeriod,
		ReservePrice:       houseapi.FormatAmount(state.ReservePrice),
		Status:             state.Status.String(),
		Capacity:           s.capacity,
	}
	if receipt := s.house.Receipt(); receipt != nil {
		resp.ReceiptCOSEBase64 = base64.StdEncoding.EncodeToString(receipt)
	}
	return resp
}

func opResult(reqType string, err error) houseapi.OpResponse {
	if err != nil {
		return failure(reqType, err)
	}
	return houseapi.OpResponse{Type: reqType, Success: true}
}

func failure(reqType string, err error) houseapi.OpResponse {
	log.Printf("ERROR: %s failed: %v", reqType, err)
	return houseapi.OpResponse{Type: reqType, Success: false, Message: err.Error()}
}

// Helper function for required environment variable parsing
func getRequiredEnvInt(key string) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return 0, fmt.Errorf("required environment variable %s is not set", key)
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %s (must be a valid integer)", key, value)
	}

	log.Printf("INFO: Using %s=%d from environment", key, intValue)
	return intValue, nil
}
