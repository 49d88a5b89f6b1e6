package house

import (
	"fmt"
	"sync"
)

// Minter is the surface the auction house needs from the token collection:
// issue a batch of units to a winner and report the fixed collection size.
// The full ownership/transfer/approval machinery lives with the collection,
// not here.
type Minter interface {
	// Mint issues count consecutive unique token IDs to the owner.
	// It must fail without minting anything if the collection would
	// exceed its capacity.
	Mint(owner string, count uint32) error

	// Capacity returns the fixed number of items in the collection.
	Capacity() uint32
}

// Collection is an in-memory token collection with sequential IDs starting
// at 1.
type Collection struct {
	mu       sync.Mutex
	name     string
	symbol   string
	capacity uint32
	nextID   uint32
	owners   map[uint32]string
}

// NewCollection creates a collection of exactly capacity items.
func NewCollection(name, symbol string, capacity uint32) *Collection {
	return &Collection{
		name:     name,
		symbol:   symbol,
		capacity: capacity,
		nextID:   1,
		owners:   make(map[uint32]string),
	}
}

func (c *Collection) Name() string   { return c.name }
func (c *Collection) Symbol() string { return c.symbol }

// Capacity returns the fixed collection size.
func (c *Collection) Capacity() uint32 { return c.capacity }

// Mint issues count consecutive token IDs to owner, or fails atomically if
// the collection would overflow.
func (c *Collection) Mint(owner string, count uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nextID-1+count > c.capacity {
		return fmt.Errorf("minting %d tokens would exceed collection capacity %d (%d already minted)",
			count, c.capacity, c.nextID-1)
	}
	for i := uint32(0); i < count; i++ {
		c.owners[c.nextID] = owner
		c.nextID++
	}
	return nil
}

// OwnerOf returns the owner of a token ID, if minted.
func (c *Collection) OwnerOf(tokenID uint32) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	owner, ok := c.owners[tokenID]
	return owner, ok
}

// Minted returns the number of tokens issued so far.
func (c *Collection) Minted() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextID - 1
}
