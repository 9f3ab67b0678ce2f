package store

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"time"
)

const (
	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referenceRandLen  = 5
)

// ReferenceGenerator produces PREFIX-YYYYMMDD-XXXXX references. Collisions
// are left to the unique constraint in the store.
type ReferenceGenerator struct {
	prefix string
	random io.Reader
}

func NewReferenceGenerator(prefix string) *ReferenceGenerator {
	if prefix == "" {
		prefix = "APP"
	}
	return &ReferenceGenerator{prefix: prefix, random: rand.Reader}
}

// Generate builds a reference for a submission received at now.
func (g *ReferenceGenerator) Generate(now time.Time) (string, error) {
	suffix := make([]byte, referenceRandLen)
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := range suffix {
		n, err := rand.Int(g.random, max)
		if err != nil {
			return "", fmt.Errorf("generate reference: %w", err)
		}
		suffix[i] = referenceAlphabet[n.Int64()]
	}
	return fmt.Sprintf("%s-%s-%s", g.prefix, now.Format("20060102"), suffix), nil
}
