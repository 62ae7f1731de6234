package booking

import (
	"crypto/rand"
	"math/big"
)

const (
	referenceLength   = 9
	referenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewReference returns a random 9 character upper-case base-36 token.
// It is unique with high probability only; nothing checks collisions.
func NewReference() string {
	buf := make([]byte, referenceLength)
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("booking: crypto/rand unavailable: " + err.Error())
		}
		buf[i] = referenceAlphabet[n.Int64()]
	}
	return string(buf)
}
