package services

import (
	"encoding/hex"
	"slices"

	"github.com/buidl-renaissance/art-night-detroit-sub000/models"

	"github.com/zeebo/blake3"
)

// poolDomainKey keys the draw pool hash. Changing it invalidates every
// digest already stored in raffle_draws.
var poolDomainKey = [32]byte{
	'r', 'a', 'f', 'f', 'l', 'e', '.', 'd', 'r', 'a', 'w', '.',
	'p', 'o', 'o', 'l', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// PoolDigest fingerprints the set of tickets a draw chose from. The ids are
// sorted first so the digest depends on pool membership, not query order.
func PoolDigest(pool []models.Ticket) string {
	ids := models.TicketIDs(pool)
	slices.Sort(ids)

	h, err := blake3.NewKeyed(poolDomainKey[:])
	if err != nil {
		// Only fails for a key that is not 32 bytes.
		panic(err)
	}
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
