// Package markup segments the Pandora markup dialect into an ordered stream
// of typed fragments.
//
// The segmenter is a single forward scan: animation environments, inline
// media commands, and page-break markers are recognized in document order,
// and everything else accumulates into text fragments. Segmentation never
// fails; malformed command syntax degrades to literal text so authors see
// their input rather than an error.
package markup
