package main

import (
	"log"
	"os"

	"github.com/cloudx-io/sealedbid/house"
	"github.com/cloudx-io/sealedbid/verify"
)

// auctiond hosts a single sealed-bid auction over vsock. Deployment
// parameters come from the environment:
//
//	AUCTIOND_PORT         vsock port to listen on
//	AUCTIOND_MAX_WORKERS  max concurrent connections
//	AUCTION_OWNER         auctioneer identity for proceeds withdrawal
//	AUCTION_CAPACITY      collection size (number of items for sale)
//	AUCTION_TOP_K         contender bound for the finalization optimizer
//	AUCTION_NAME          collection name
//	AUCTION_SYMBOL        collection symbol
//	AUCTION_SNAPSHOT_PATH optional state snapshot file; restored on boot
func main() {
	port, err := getRequiredEnvInt("AUCTIOND_PORT")
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	capacity, err := getRequiredEnvInt("AUCTION_CAPACITY")
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	topK, err := getRequiredEnvInt("AUCTION_TOP_K")
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	owner := os.Getenv("AUCTION_OWNER")
	if owner == "" {
		log.Fatalf("ERROR: required environment variable AUCTION_OWNER is not set")
	}
	name := os.Getenv("AUCTION_NAME")
	symbol := os.Getenv("AUCTION_SYMBOL")
	if capacity <= 0 {
		log.Fatalf("ERROR: AUCTION_CAPACITY must be positive, got %d", capacity)
	}

	key, err := house.GenerateReceiptKey()
	if err != nil {
		log.Fatalf("ERROR: Failed to generate receipt key: %v", err)
	}
	signer, err := house.NewReceiptSigner(key)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	pemBytes, err := verify.MarshalPublicKeyPEM(signer.PublicKey())
	if err != nil {
		log.Fatalf("ERROR: Failed to encode receipt public key: %v", err)
	}
	log.Printf("INFO: Receipt verification key:\n%s", pemBytes)

	collection := house.NewCollection(name, symbol, uint32(capacity))
	treasury := house.NewLedgerTreasury()
	auctionHouse, err := house.NewAuctionHouse(collection, treasury, house.Config{
		Owner:  owner,
		TopK:   topK,
		Signer: signer,
	})
	if err != nil {
		log.Fatalf("ERROR: Failed to initialize auction house: %v", err)
	}

	snapshotPath := os.Getenv("AUCTION_SNAPSHOT_PATH")
	if snapshotPath != "" {
		if _, err := os.Stat(snapshotPath); err == nil {
			if err := auctionHouse.LoadSnapshot(snapshotPath); err != nil {
				log.Fatalf("ERROR: Failed to restore snapshot: %v", err)
			}
			log.Printf("INFO: Restored auction state from %s", snapshotPath)
		}
	}

	server := NewAuctionServer(uint32(port), auctionHouse, uint32(capacity), snapshotPath)
	log.Fatal(server.Start())
}
