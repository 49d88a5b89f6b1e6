package house

import (
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestCollection_MintsSequentialIDs(t *testing.T) {
	c := NewCollection("Drop", "DRP", 5)
	check.Equal(t, "Drop", c.Name())
	check.Equal(t, "DRP", c.Symbol())
	check.Equal(t, uint32(5), c.Capacity())
	check.Equal(t, uint32(0), c.Minted())

	check.Nil(t, c.Mint("alice", 2))
	check.Nil(t, c.Mint("bob", 1))
	check.Equal(t, uint32(3), c.Minted())

	for id, want := range map[uint32]string{1: "alice", 2: "alice", 3: "bob"} {
		owner, ok := c.OwnerOf(id)
		check.True(t, ok)
		check.Equal(t, want, owner)
	}
	_, ok := c.OwnerOf(4)
	check.False(t, ok)
}

func TestCollection_MintFailsAtomicallyOverCapacity(t *testing.T) {
	c := NewCollection("Drop", "DRP", 3)
	check.Nil(t, c.Mint("alice", 2))

	// Two units would overflow a 3-item collection; nothing is issued.
	check.Error(t, c.Mint("bob", 2))
	check.Equal(t, uint32(2), c.Minted())
	_, ok := c.OwnerOf(3)
	check.False(t, ok)

	// The remaining unit still mints.
	check.Nil(t, c.Mint("bob", 1))
	check.Equal(t, uint32(3), c.Minted())
	owner, ok := c.OwnerOf(3)
	check.True(t, ok)
	check.Equal(t, "bob", owner)
}

func TestLedgerTreasury_RecordsPayouts(t *testing.T) {
	l := NewLedgerTreasury()
	check.Nil(t, l.Payout("alice", 7))
	check.Nil(t, l.Payout("alice", 3))
	check.Nil(t, l.Payout("bob", 0))

	check.Equal(t, uint64(10), l.Paid("alice"))
	check.Equal(t, uint64(0), l.Paid("bob"))
	check.Equal(t, uint64(10), l.Total())
}
