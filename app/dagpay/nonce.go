package dagpay

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

const NonceLength = 32

type NonceGenerator struct {
	reader io.Reader
}

func NewNonceGenerator() *NonceGenerator {
	return &NonceGenerator{reader: rand.Reader}
}

func NewNonceGeneratorFromReader(reader io.Reader) *NonceGenerator {
	return &NonceGenerator{reader: reader}
}

// Generate returns length upper-case hex characters. Every hex digit encodes
// an independent uniform nibble, so dropping the last digit for odd lengths
// does not bias the output.
func (g *NonceGenerator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidNonceLength
	}
	buf := make([]byte, (length+1)/2)
	if _, err := io.ReadFull(g.reader, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(buf)[:length]), nil
}
