package main

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/cloudx-io/sealedbid/core"
	"github.com/cloudx-io/sealedbid/verify"
)

func main() {
	// Define CLI flags
	var (
		receiptInput = flag.String("receipt", "", "Base64 COSE receipt (file path or inline base64)")
		pubkeyInput  = flag.String("pubkey", "", "Receipt verification key (PEM file path)")
		bidsInput    = flag.String("bids", "", "Published revealed bids JSON (file path or inline JSON)")
		outputFormat = flag.String("format", "text", "Output format: text or json")
		help         = flag.Bool("help", false, "Show usage information")
	)

	flag.Parse()

	if *help {
		showUsage()
		os.Exit(0)
	}

	if *receiptInput == "" || *pubkeyInput == "" || *bidsInput == "" {
		showUsage()
		fmt.Fprintf(os.Stderr, "\nError: All three inputs are required (--receipt, --pubkey, --bids)\n")
		os.Exit(1)
	}

	coseBytes, err := readReceiptInput(*receiptInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading receipt: %v\n", err)
		os.Exit(2)
	}

	pemBytes, err := os.ReadFile(*pubkeyInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading public key: %v\n", err)
		os.Exit(2)
	}
	pubkey, err := verify.ParsePublicKeyPEM(pemBytes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing public key: %v\n", err)
		os.Exit(2)
	}

	bids, err := readBidsInput(*bidsInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading revealed bids: %v\n", err)
		os.Exit(2)
	}

	receipt, err := verify.OutcomeReceipt(coseBytes, pubkey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Receipt signature verification FAILED: %v\n", err)
		os.Exit(3)
	}

	replayErr := verify.CheckReceipt(bids, receipt)

	if *outputFormat == "json" {
		out := map[string]any{
			"signature_valid": true,
			"replay_valid":    replayErr == nil,
			"receipt":         receipt,
		}
		if replayErr != nil {
			out["replay_error"] = replayErr.Error()
		}
		if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
			os.Exit(2)
		}
	} else {
		fmt.Printf("Signature: VALID\n")
		fmt.Printf("Auction:   %s\n", receipt.AuctionID)
		fmt.Printf("Capacity:  %d, reserve %d, optimal value %d, proceeds %d\n",
			receipt.Capacity, receipt.ReservePrice, receipt.OptimalValue, receipt.Proceeds)
		winners := make([]string, 0, len(receipt.Outcomes))
		for bidder := range receipt.Outcomes {
			winners = append(winners, bidder)
		}
		sort.Strings(winners)
		for _, bidder := range winners {
			outcome := receipt.Outcomes[bidder]
			fmt.Printf("  winner %s: %d units, pays %d\n", bidder, outcome.Amount, outcome.Payment)
		}
		if replayErr != nil {
			fmt.Printf("Replay:    FAILED (%v)\n", replayErr)
		} else {
			fmt.Printf("Replay:    VALID (outcomes reproduce from the published bids)\n")
		}
	}

	if replayErr != nil {
		os.Exit(4)
	}
}

// readReceiptInput accepts either a file path or inline base64.
func readReceiptInput(input string) ([]byte, error) {
	if data, err := os.ReadFile(input); err == nil {
		input = string(data)
	}
	coseBytes, err := base64.StdEncoding.DecodeString(strings.TrimSpace(input))
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return coseBytes, nil
}

// readBidsInput accepts either a file path or inline JSON.
func readBidsInput(input string) ([]core.RevealedBid, error) {
	data := []byte(input)
	if fileData, err := os.ReadFile(input); err == nil {
		data = fileData
	}
	var bids []core.RevealedBid
	if err := json.Unmarshal(data, &bids); err != nil {
		return nil, fmt.Errorf("parse bids JSON: %w", err)
	}
	return bids, nil
}

func showUsage() {
	fmt.Printf(`Outcome Verifier - offline verification of auction finalization receipts

Usage:
  outcome-verifier --receipt <input> --pubkey <pem-file> --bids <input> [--format text|json]

Inputs:
  --receipt   Base64-encoded COSE_Sign1 receipt (inline or file path)
  --pubkey    PEM file with the house's receipt verification key
  --bids      JSON array of published revealed bids (inline or file path)

The verifier checks the receipt signature, then replays the allocation from
the published bids and compares winners, payments, and proceeds.
`)
}
