// Package archive assembles compiled documents into the portable .pandora
// container: a ZIP holding the manifest as meta.json plus one entry per
// rendered or copied asset.
//
// Archive writes are deterministic. Entries appear in a fixed order (the
// manifest first, then assets in block sequence order), entry headers carry
// a constant timestamp, and the manifest marshals with stable key order, so
// compiling the same input with the same renderer outputs yields the same
// bytes. The archive lands via an atomic rename; a failed or cancelled
// compile leaves nothing at the output path.
package archive
