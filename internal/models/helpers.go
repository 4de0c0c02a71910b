package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

func NewDepositReference() string {
	return fmt.Sprintf("dep_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func NewReferralCode() (string, error) {
	bytes := make([]byte, 4)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate referral code: %v", err)
	}
	return strings.ToUpper(hex.EncodeToString(bytes)), nil
}

// NewServerSeed returns hex-encoded entropy for the provably fair outcome
// generator. Rotated at process start; the hash is published on every round.
func NewServerSeed() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate server seed: %v", err)
	}
	return hex.EncodeToString(bytes), nil
}
