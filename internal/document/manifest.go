package document

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatVersion is the archive manifest revision this build writes. Loaders
// accept manifests up to and including this version.
const FormatVersion = 1

// ManifestName is the manifest entry name inside the archive.
const ManifestName = "meta.json"

// Manifest is the document metadata serialized as the archive's meta.json.
// Field order here fixes the JSON key order, and options maps marshal with
// sorted keys, so identical inputs produce byte-identical manifests.
type Manifest struct {
	FormatVersion int        `json:"format_version"`
	LayoutMode    LayoutMode `json:"layout_mode"`
	Blocks        []Block    `json:"blocks"`
}

// NewManifest builds the manifest for a finished compile at the current
// format version. Blocks are copied and nil options normalized to empty
// maps, so a serialized manifest never carries a null options field.
func NewManifest(mode LayoutMode, blocks []Block) *Manifest {
	out := make([]Block, len(blocks))
	copy(out, blocks)
	for i := range out {
		if out[i].Options == nil {
			out[i].Options = map[string]string{}
		}
	}
	return &Manifest{FormatVersion: FormatVersion, LayoutMode: mode, Blocks: out}
}

// ValidationError describes the first structural violation found in a
// manifest. BlockIndex is the offending block's position in the blocks
// array, or -1 for manifest-level problems.
type ValidationError struct {
	BlockIndex int
	Reason     string
}

func (e *ValidationError) Error() string {
	if e.BlockIndex < 0 {
		return "manifest: " + e.Reason
	}
	return fmt.Sprintf("manifest block %d: %s", e.BlockIndex, e.Reason)
}

// Marshal serializes the manifest with stable formatting.
func (m *Manifest) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// ParseManifest decodes manifest bytes without validating invariants; call
// Validate on the result before trusting it.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// Validate checks the structural invariants every well-formed manifest
// holds: a supported format version, a known layout mode, contiguous
// zero-based sequence indices, valid kinds, and a usable asset reference on
// every block. It returns a *ValidationError naming the first violation.
func (m *Manifest) Validate() error {
	if m.FormatVersion < 0 || m.FormatVersion > FormatVersion {
		return &ValidationError{
			BlockIndex: -1,
			Reason:     fmt.Sprintf("unsupported format_version %d (viewer supports up to %d)", m.FormatVersion, FormatVersion),
		}
	}
	if !m.LayoutMode.Valid() {
		return &ValidationError{
			BlockIndex: -1,
			Reason:     fmt.Sprintf("unknown layout_mode %q", m.LayoutMode),
		}
	}
	seen := make(map[string]int, len(m.Blocks))
	for i, blk := range m.Blocks {
		if blk.SequenceIndex != i {
			return &ValidationError{
				BlockIndex: i,
				Reason:     fmt.Sprintf("sequence_index %d breaks contiguous ordering (expected %d)", blk.SequenceIndex, i),
			}
		}
		if !blk.Kind.Valid() {
			return &ValidationError{
				BlockIndex: i,
				Reason:     fmt.Sprintf("unknown kind %q", blk.Kind),
			}
		}
		if blk.AssetRef == "" {
			return &ValidationError{
				BlockIndex: i,
				Reason:     fmt.Sprintf("missing asset_ref on %s block (sequence_index %d)", blk.Kind, blk.SequenceIndex),
			}
		}
		if blk.Failed() {
			continue
		}
		if strings.HasPrefix(blk.AssetRef, "/") || strings.Contains(blk.AssetRef, "..") {
			return &ValidationError{
				BlockIndex: i,
				Reason:     fmt.Sprintf("asset_ref %q escapes the archive root", blk.AssetRef),
			}
		}
		if prev, dup := seen[blk.AssetRef]; dup {
			return &ValidationError{
				BlockIndex: i,
				Reason:     fmt.Sprintf("asset_ref %q already used by block %d", blk.AssetRef, prev),
			}
		}
		seen[blk.AssetRef] = i
	}
	return nil
}
