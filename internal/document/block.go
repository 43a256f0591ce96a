package document

import "fmt"

// Kind identifies what a block contains and which renderer is responsible
// for producing its asset.
type Kind string

const (
	// KindText is markup text rendered to SVG by the LaTeX toolchain.
	KindText Kind = "text"
	// KindAnimationScene is an animation script from an environment form.
	KindAnimationScene Kind = "animation-scene"
	// KindAnimationInline is an animation script from an inline command.
	KindAnimationInline Kind = "animation-inline"
	// KindImage is a referenced image file copied into the archive.
	KindImage Kind = "image"
	// KindVideo is a referenced video file copied into the archive.
	KindVideo Kind = "video"
)

// Valid reports whether k is one of the defined block kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindAnimationScene, KindAnimationInline, KindImage, KindVideo:
		return true
	}
	return false
}

// IsAnimation reports whether k is rendered by the animation toolchain.
func (k Kind) IsAnimation() bool {
	return k == KindAnimationScene || k == KindAnimationInline
}

// LayoutMode is the archive-global page layout. It is decided once per
// compile, before rendering, and never varies per block.
type LayoutMode string

const (
	LayoutSingleColumn LayoutMode = "single-column"
	LayoutTwoColumn    LayoutMode = "two-column"
)

// Valid reports whether m is a defined layout mode.
func (m LayoutMode) Valid() bool {
	return m == LayoutSingleColumn || m == LayoutTwoColumn
}

// Archive namespaces. Every asset reference is a forward-slash relative
// path rooted at one of these directories.
const (
	NamespaceLatex      = "latex"
	NamespaceAnimations = "animations"
	NamespaceImages     = "images"
	NamespaceVideos     = "videos"
)

// AssetRefFailed marks a block whose render failed. The leading '!' keeps it
// disjoint from real relative paths, so viewers can distinguish a recorded
// failure from a dangling reference.
const AssetRefFailed = "!render-failed"

// Block is one typed content unit of a compiled document.
//
// RawPayload is compile-time state only and never reaches the manifest:
// viewers consume rendered assets, not source markup.
type Block struct {
	SequenceIndex   int               `json:"sequence_index"`
	Kind            Kind              `json:"kind"`
	RawPayload      string            `json:"-"`
	Options         map[string]string `json:"options"`
	AssetRef        string            `json:"asset_ref"`
	PageBreakBefore bool              `json:"page_break_before"`
}

// Failed reports whether the block's render was recorded as failed.
func (b Block) Failed() bool {
	return b.AssetRef == AssetRefFailed
}

// TextAssetRef returns the archive path for a rendered text block.
func TextAssetRef(sequenceIndex int) string {
	return fmt.Sprintf("%s/block_%d.svg", NamespaceLatex, sequenceIndex)
}

// AnimationAssetRef returns the archive path for a rendered animation block.
func AnimationAssetRef(sequenceIndex int) string {
	return fmt.Sprintf("%s/scene_%d.mp4", NamespaceAnimations, sequenceIndex)
}
