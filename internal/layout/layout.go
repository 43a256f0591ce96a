package layout

import (
	"regexp"

	"pandora/internal/document"
	"pandora/internal/markup"
)

// twoColumnDirective matches the three spellings that switch a document to
// two-column layout. Each must start a line. The directives are not commands
// and stay in the text stream.
var twoColumnDirective = regexp.MustCompile(`(?m)^(?:%%\s*twocolumn|\\twocolumn|\\document\[.*twocolumn.*\])`)

// Infer decides the archive-global layout mode from the raw document
// source. Detection runs once per compile on the full input, before
// segmentation, so a directive line counts no matter which fragment it
// later lands in.
func Infer(source string) document.LayoutMode {
	if twoColumnDirective.MatchString(source) {
		return document.LayoutTwoColumn
	}
	return document.LayoutSingleColumn
}

// Build folds a fragment stream into the final block sequence. Page-break
// markers are removed and recorded as page_break_before on the next
// surviving block; markers with nothing after them are dropped. Sequence
// indices are assigned after folding and are contiguous from zero.
func Build(fragments []markup.Fragment) []document.Block {
	var blocks []document.Block
	pending := false
	for _, frag := range fragments {
		if frag.Kind == markup.FragmentPageBreak {
			pending = true
			continue
		}
		kind, ok := blockKind(frag.Kind)
		if !ok {
			continue
		}
		blocks = append(blocks, document.Block{
			SequenceIndex:   len(blocks),
			Kind:            kind,
			RawPayload:      frag.Payload,
			Options:         frag.Options,
			PageBreakBefore: pending,
		})
		pending = false
	}
	return blocks
}

func blockKind(kind markup.FragmentKind) (document.Kind, bool) {
	switch kind {
	case markup.FragmentText:
		return document.KindText, true
	case markup.FragmentImage:
		return document.KindImage, true
	case markup.FragmentVideo:
		return document.KindVideo, true
	case markup.FragmentAnimationScene:
		return document.KindAnimationScene, true
	case markup.FragmentAnimationInline:
		return document.KindAnimationInline, true
	}
	return "", false
}
