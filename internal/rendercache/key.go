package rendercache

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// Object kinds stored in the cache. Media blocks are plain copies and never
// cached.
const (
	KindText      = "text"
	KindAnimation = "animation"
)

// Key derives the cache key for one rendered block. The payload and option
// values are NFC-normalized so visually identical markup hits the same
// entry regardless of source encoding. contract carries whatever renderer
// state changes the output beyond the payload: the preamble for text
// blocks, the effective quality for animations.
func Key(renderer, payload string, options map[string]string, contract string) string {
	h := sha256.New()
	_, _ = io.WriteString(h, renderer)
	h.Write([]byte{0})
	_, _ = io.WriteString(h, norm.NFC.String(payload))
	h.Write([]byte{0})

	names := make([]string, 0, len(options))
	for name := range options {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_, _ = io.WriteString(h, name)
		h.Write([]byte{'='})
		_, _ = io.WriteString(h, norm.NFC.String(options[name]))
		h.Write([]byte{0})
	}

	_, _ = io.WriteString(h, contract)
	return hex.EncodeToString(h.Sum(nil))
}
