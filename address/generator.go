// Package address mints deposit addresses.
package address

import (
	"crypto/rand"
	"math/big"

	"github.com/pkg/errors"
)

const (
	charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	length  = 32
)

// Generator draws from crypto/rand so a deposit address cannot be predicted
// from previously issued ones. A production deployment would ask the payment
// network itself for addresses that satisfy its constraints.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate() (string, error) {
	buf := make([]byte, length)
	max := big.NewInt(int64(len(charset)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", errors.Wrap(err, "draw address char")
		}
		buf[i] = charset[n.Int64()]
	}
	return string(buf), nil
}
