// Package compile drives the document pipeline end to end: read the markup
// source, segment it into blocks, infer layout, preflight the renderer
// toolchain, fan renders out to the dispatcher, and assemble the archive.
//
// A compile tolerates per-block renderer failures (they surface as warnings
// on the result and failure sentinels in the manifest) but aborts on
// structural problems: unreadable input, a missing tool the document needs,
// unwritable staging, archive write failures, or cancellation. An aborted
// compile leaves no archive behind.
package compile
