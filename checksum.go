package drivekit

import (
	"encoding/hex"
	"io"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Checksum returns the hex-encoded xxhash64 of data.
func Checksum(data []byte) string {
	h := xxhash.New()
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ChecksumReader reads r to the end and returns its hex-encoded xxhash64.
func ChecksumReader(r io.Reader) (string, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// StableID derives a ResourceID from a location and content type. Drivers
// without native identifiers use it so an overwritten item keeps its ID.
func StableID(loc Location, contentType string) ResourceID {
	h := xxhash.New()
	_, _ = h.WriteString(loc.String())
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(contentType)
	return ResourceID(strconv.FormatUint(h.Sum64(), 16))
}
