package pkg

import (
	"crypto/rand"
	"math/big"
)

const (
	roomIDLength   = 6
	roomIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateRoomID - generates a short shareable room code. Room ids are
// opaque keys; uniqueness is only enforced by the existence check at
// creation time.
func GenerateRoomID() string {
	id := make([]byte, roomIDLength)

	for i := range id {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(roomIDAlphabet))))
		if err != nil {
			return ""
		}
		id[i] = roomIDAlphabet[n.Int64()]
	}

	return string(id)
}
