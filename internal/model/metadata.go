package model

import (
	"fmt"
	"regexp"
)

// MaxImageSizeBytes caps accepted uploads at 2 MB.
const MaxImageSizeBytes = 2_000_000

// md5HexRE matches the content hash reported by the object store for
// single-part uploads (hex MD5 ETag).
var md5HexRE = regexp.MustCompile(`^[a-f0-9]{32}$`)

// allowedFormats is the accepted set of image file formats, following the
// common image MIME subtypes.
var allowedFormats = map[string]struct{}{
	"png":                {},
	"gif":                {},
	"bmp":                {},
	"jpg":                {},
	"jpeg":               {},
	"tiff":               {},
	"webp":               {},
	"svg+xml":            {},
	"vnd.microsoft.icon": {},
}

// Metadata is the structural metadata of an uploaded object: size, file
// format and a content hash anchoring integrity between the object store
// and the relational store.
type Metadata struct {
	hash   string
	Size   int64  `json:"size"`
	Format string `json:"format"`
}

// NewMetadata validates format and size at construction time.
func NewMetadata(size int64, format string) (Metadata, error) {
	if _, ok := allowedFormats[format]; !ok {
		return Metadata{}, fmt.Errorf("%w: %q", ErrImageFormatInvalid, format)
	}
	if size > MaxImageSizeBytes {
		return Metadata{}, fmt.Errorf("%w: %d bytes", ErrImageSizeExceeded, size)
	}

	return Metadata{Size: size, Format: format}, nil
}

// SecureHash anchors the metadata to a content hash. Once set, the hash
// cannot be overwritten: a second confirmation must not silently swap the
// integrity anchor.
func (m *Metadata) SecureHash(hash string) {
	if m.hash != "" {
		return
	}
	m.hash = hash
}

// Hash returns the content hash, or "" if not yet secured.
func (m Metadata) Hash() string {
	return m.hash
}

// Corrupt reports whether the stored hash is unusable as an integrity
// anchor: either not a hex MD5 digest or not matching the hash the client
// declared at confirmation time.
func (m Metadata) Corrupt(declaredHash string) bool {
	return !md5HexRE.MatchString(m.hash) || m.hash != declaredHash
}
