package refgen

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"time"
)

const (
	PrefixInternal = "TXN"
	PrefixExternal = "HER"
	PrefixAdmin    = "ADM"
	PrefixRefund   = "REF"

	suffixLen = 6
	alphanum  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

type Generator struct {
	now    func() time.Time
	random io.Reader
}

func New() *Generator {
	return &Generator{now: time.Now, random: rand.Reader}
}

// Next returns prefix + unix millis + a random alphanumeric suffix.
func (g *Generator) Next(prefix string) (string, error) {
	suffix, err := g.pick(alphanum, suffixLen)
	if err != nil {
		return "", fmt.Errorf("Next: %w", err)
	}
	return prefix + strconv.FormatInt(g.now().UnixMilli(), 10) + suffix, nil
}

func (g *Generator) AccountNumber() (string, error) {
	n, err := g.pick("0123456789", 10)
	if err != nil {
		return "", fmt.Errorf("AccountNumber: %w", err)
	}
	return n, nil
}

func (g *Generator) Digits(n int) (string, error) {
	d, err := g.pick("0123456789", n)
	if err != nil {
		return "", fmt.Errorf("Digits: %w", err)
	}
	return d, nil
}

func (g *Generator) pick(alphabet string, n int) (string, error) {
	out := make([]byte, n)
	limit := big.NewInt(int64(len(alphabet)))
	for i := range out {
		idx, err := rand.Int(g.random, limit)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
