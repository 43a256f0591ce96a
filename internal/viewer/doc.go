// Package viewer loads .pandora archives for display: it validates the
// manifest's structural invariants, groups blocks into pages, and resolves
// asset payloads lazily from the underlying ZIP.
//
// Loading is all-or-nothing. A structurally invalid archive is rejected with
// a LoadError naming the first offending block; a valid archive always
// yields the complete page sequence, with failed-render blocks kept in place
// so a viewer can show placeholders instead of silently dropping content.
package viewer
