// Package layout finalizes the segmented fragment stream into the block
// sequence that drives rendering and archive assembly.
//
// Two decisions happen here: the archive-global layout mode, detected once
// from raw source, and the folding of page-break markers into the
// page_break_before flag of neighboring blocks. After folding, sequence
// indices are contiguous, which every later stage depends on.
package layout
