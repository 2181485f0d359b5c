package telemetry

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

var hexSeparators = strings.NewReplacer(":", "", "\"", "")

// DecodeHex converts a colon/quote delimited hex cell into exactly length
// bytes. Digits beyond the first length pairs are not inspected.
func DecodeHex(s string, length int) ([]byte, error) {
	s = strings.TrimSpace(hexSeparators.Replace(s))
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: odd digit count %d", ErrMalformedHex, len(s))
	}
	if length <= 0 {
		return nil, fmt.Errorf("%w: declared length %d must be > 0", ErrInvalidLength, length)
	}
	if avail := len(s) / 2; avail < length {
		return nil, fmt.Errorf("%w: %d bytes available, %d required", ErrInvalidLength, avail, length)
	}

	b, err := hex.DecodeString(s[:2*length])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHex, err)
	}
	return b, nil
}

// Latin1 maps each byte to the code point of the same value. A UTF-8
// conversion would corrupt bytes >= 0x80.
func Latin1(b []byte) string {
	out, _ := charmap.ISO8859_1.NewDecoder().Bytes(b)
	return string(out)
}
