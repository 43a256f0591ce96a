// Package document defines the shared data model for compiled documents:
// typed content blocks, the archive manifest, and the structural invariants
// both the compiler and the viewer loader enforce.
//
// Blocks are produced by the markup segmenter, finalized by layout
// inference, and serialized into the archive manifest. The manifest schema
// in this package is the wire contract between the build tool and viewers,
// so changes here require bumping FormatVersion.
package document
