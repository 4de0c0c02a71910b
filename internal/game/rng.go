package game

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"math/big"
	"strings"
)

// Fair derives round outcomes from HMAC-SHA256 over a server seed. The seed
// hash is published on every round, so players can verify outcomes after the
// seed is rotated. Distinct message parts give independent uniforms for the
// multi-draw games.
type Fair struct {
	seed []byte
}

func NewFair(serverSeed string) *Fair {
	return &Fair{seed: []byte(serverSeed)}
}

func (f *Fair) SeedHash() string {
	hash := sha256.Sum256(f.seed)
	return hex.EncodeToString(hash[:])
}

// Roll returns a uniform float in [0, 1) from the first 52 bits of
// HMAC-SHA256(seed, parts joined by ":").
func (f *Fair) Roll(parts ...string) float64 {
	h := hmac.New(sha256.New, f.seed)
	h.Write([]byte(strings.Join(parts, ":")))
	digest := hex.EncodeToString(h.Sum(nil))

	n := new(big.Int)
	n.SetString(digest[:13], 16)

	return float64(n.Int64()) / math.Pow(2, 52)
}

// ReplayRoll recomputes a roll for a revealed seed, for player-side
// verification.
func ReplayRoll(serverSeed string, parts ...string) float64 {
	return NewFair(serverSeed).Roll(parts...)
}
