package decoding

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"io"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/sww/yenc"
)

var partCrcRegex = regexp.MustCompile(`(?m)^=yend.*\bpcrc32=([0-9a-fA-F]{8})`)

// Verify decodes a complete yEnc article body and checks its CRC, using the
// part CRC when the trailer has one. A body without any CRC is ok, one that
// cannot be decoded is not. Only read failures are returned as errors.
func Verify(r io.Reader) (bool, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return false, errors.Wrap(err, "reading body")
	}
	part, err := yenc.Decode(bytes.NewReader(raw))
	if err != nil {
		return false, nil
	}

	expected := part.CRC32
	if m := partCrcRegex.FindSubmatch(raw); m != nil {
		expected = string(m[1])
	}
	if expected == "" {
		return true, nil
	}
	return checksum(part.Body, expected), nil
}

func checksum(data []byte, expected string) bool {
	h := fmt.Sprintf("%08x", crc32.ChecksumIEEE(data))
	return strings.EqualFold(h, expected)
}
