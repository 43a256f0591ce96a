package viewer

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"

	"pandora/internal/document"
)

var (
	// ErrMalformed marks archives rejected at load time. Every LoadError
	// unwraps to it.
	ErrMalformed = errors.New("malformed archive")
	// ErrAssetFailed is returned when an asset is requested for a block
	// whose render was recorded as failed. Viewers show a placeholder.
	ErrAssetFailed = errors.New("block render failed")
	// ErrAssetUnknown is returned when an asset reference names no block in
	// the loaded document.
	ErrAssetUnknown = errors.New("unknown asset reference")
)

// LoadError names the first structural violation that made an archive
// unloadable. BlockIndex is the offending block's position in the manifest,
// or -1 when the manifest itself is missing or unreadable.
type LoadError struct {
	BlockIndex int
	Reason     string
}

func (e *LoadError) Error() string {
	if e.BlockIndex < 0 {
		return fmt.Sprintf("load archive: %s", e.Reason)
	}
	return fmt.Sprintf("load archive: block %d: %s", e.BlockIndex, e.Reason)
}

func (e *LoadError) Unwrap() error { return ErrMalformed }

// Page is one display page: a contiguous run of blocks between page
// boundaries. Number is 1-based.
type Page struct {
	Number int
	Blocks []document.Block
}

// Document is a loaded archive. Opening resolves the manifest and page
// structure only; asset payloads stream from the archive on demand, so a
// viewer can fetch pages lazily as they scroll into view.
type Document struct {
	manifest *document.Manifest
	pages    []Page
	entries  map[string]*zip.File
	closer   io.Closer
}

// Open loads the archive at path.
func Open(path string) (*Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, &LoadError{BlockIndex: -1, Reason: fmt.Sprintf("open archive: %v", err)}
	}
	doc, err := load(&zr.Reader)
	if err != nil {
		_ = zr.Close()
		return nil, err
	}
	doc.closer = zr
	return doc, nil
}

// OpenReader loads an archive from an io.ReaderAt.
func OpenReader(ra io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, &LoadError{BlockIndex: -1, Reason: fmt.Sprintf("read archive: %v", err)}
	}
	return load(zr)
}

// OpenBytes loads an archive from raw bytes, the form embedded and network
// viewers receive.
func OpenBytes(data []byte) (*Document, error) {
	return OpenReader(bytes.NewReader(data), int64(len(data)))
}

func load(zr *zip.Reader) (*Document, error) {
	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}

	meta, ok := entries[document.ManifestName]
	if !ok {
		return nil, &LoadError{BlockIndex: -1, Reason: document.ManifestName + " missing"}
	}
	raw, err := readEntry(meta)
	if err != nil {
		return nil, &LoadError{BlockIndex: -1, Reason: fmt.Sprintf("read %s: %v", document.ManifestName, err)}
	}
	manifest, err := document.ParseManifest(raw)
	if err != nil {
		return nil, &LoadError{BlockIndex: -1, Reason: err.Error()}
	}
	if err := validate(manifest, entries); err != nil {
		return nil, err
	}

	return &Document{
		manifest: manifest,
		pages:    paginate(manifest.Blocks),
		entries:  entries,
	}, nil
}

// validate layers archive-level checks over the manifest invariants: every
// non-failed block's asset reference must resolve to an archive entry.
func validate(manifest *document.Manifest, entries map[string]*zip.File) error {
	if err := manifest.Validate(); err != nil {
		var verr *document.ValidationError
		if errors.As(err, &verr) {
			return &LoadError{BlockIndex: verr.BlockIndex, Reason: verr.Reason}
		}
		return &LoadError{BlockIndex: -1, Reason: err.Error()}
	}
	for i, block := range manifest.Blocks {
		if block.Failed() {
			continue
		}
		if _, ok := entries[block.AssetRef]; !ok {
			return &LoadError{
				BlockIndex: i,
				Reason:     fmt.Sprintf("asset_ref %q (sequence_index %d) resolves to no archive entry", block.AssetRef, block.SequenceIndex),
			}
		}
	}
	return nil
}

// paginate groups blocks into pages. The first block always opens page one;
// a page_break_before flag on any later block opens the next page.
func paginate(blocks []document.Block) []Page {
	var pages []Page
	for _, block := range blocks {
		if len(pages) == 0 || block.PageBreakBefore {
			pages = append(pages, Page{Number: len(pages) + 1})
		}
		last := &pages[len(pages)-1]
		last.Blocks = append(last.Blocks, block)
	}
	return pages
}

// LayoutMode returns the archive-global column layout.
func (d *Document) LayoutMode() document.LayoutMode {
	return d.manifest.LayoutMode
}

// FormatVersion returns the loaded manifest's format revision.
func (d *Document) FormatVersion() int {
	return d.manifest.FormatVersion
}

// Blocks returns the ordered block sequence.
func (d *Document) Blocks() []document.Block {
	return d.manifest.Blocks
}

// Pages returns the paginated block sequence.
func (d *Document) Pages() []Page {
	return d.pages
}

// PageCount returns the number of display pages.
func (d *Document) PageCount() int {
	return len(d.pages)
}

// OpenAsset streams the asset for ref from the archive. Requests for a
// failed block's sentinel return ErrAssetFailed; references outside the
// manifest return ErrAssetUnknown. Independent assets may be opened
// concurrently.
func (d *Document) OpenAsset(ref string) (io.ReadCloser, error) {
	if ref == document.AssetRefFailed {
		return nil, ErrAssetFailed
	}
	known := false
	for _, block := range d.manifest.Blocks {
		if block.AssetRef == ref {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("%w: %q", ErrAssetUnknown, ref)
	}
	entry, ok := d.entries[ref]
	if !ok {
		// Load-time validation guarantees this; a miss means the archive
		// changed underneath us.
		return nil, fmt.Errorf("%w: %q", ErrAssetUnknown, ref)
	}
	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("open asset %q: %w", ref, err)
	}
	return rc, nil
}

// AssetBytes reads the full asset payload for ref.
func (d *Document) AssetBytes(ref string) ([]byte, error) {
	rc, err := d.OpenAsset(ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Close releases the underlying archive reader for file-backed documents.
// Documents opened from memory need no release and Close is a no-op.
func (d *Document) Close() error {
	if d.closer != nil {
		return d.closer.Close()
	}
	return nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
