package latex

import (
	_ "embed"
)

// DefaultPreamble is the built-in preamble used when the configuration does
// not point at a custom one. It covers the document dialect's box
// environments (definitionbox, examplebox, questionbox, answerbox) and the
// Pandora color palette, so snippets render alike across installations.
//
//go:embed preamble.tex
var DefaultPreamble string
