package markup

import "strings"

// FragmentKind identifies what a fragment holds. Page-break markers exist
// only at this stage; layout inference folds them into block flags.
type FragmentKind int

const (
	FragmentText FragmentKind = iota
	FragmentImage
	FragmentVideo
	FragmentAnimationScene
	FragmentAnimationInline
	FragmentPageBreak
)

func (k FragmentKind) String() string {
	switch k {
	case FragmentText:
		return "text"
	case FragmentImage:
		return "image"
	case FragmentVideo:
		return "video"
	case FragmentAnimationScene:
		return "animation-scene"
	case FragmentAnimationInline:
		return "animation-inline"
	case FragmentPageBreak:
		return "pagebreak"
	}
	return "unknown"
}

// Fragment is one segmented unit of the source document.
type Fragment struct {
	Kind    FragmentKind
	Payload string
	Options map[string]string
}

const (
	envBegin = "\\begin{manim}"
	envEnd   = "\\end{manim}"
)

// Segment splits markup into fragments in document order. It never fails:
// anything that is not a well-formed recognized command flows through as
// literal text.
func Segment(input string) []Fragment {
	s := &scanner{src: input, lineStart: true}
	s.run()
	return s.fragments
}

type scanner struct {
	src       string
	pos       int
	lineStart bool
	text      strings.Builder
	fragments []Fragment
}

func (s *scanner) run() {
	for s.pos < len(s.src) {
		if s.lineStart && s.tryCommentDirective() {
			continue
		}
		if s.src[s.pos] == '\\' && s.tryCommand() {
			continue
		}
		s.consumeText()
	}
	s.flushText()
}

// consumeText appends the current byte to the pending text run.
func (s *scanner) consumeText() {
	ch := s.src[s.pos]
	s.text.WriteByte(ch)
	s.pos++
	s.lineStart = ch == '\n'
}

// tryCommentDirective handles %%-prefixed directive lines. Only the
// page-break directive is consumed here; every other comment line, including
// the two-column layout directive, stays in the text stream.
func (s *scanner) tryCommentDirective() bool {
	rest := s.src[s.pos:]
	if !strings.HasPrefix(rest, "%%") {
		return false
	}
	i := 2
	for i < len(rest) && (rest[i] == ' ' || rest[i] == '\t') {
		i++
	}
	word := i
	for word < len(rest) && isLetter(rest[word]) {
		word++
	}
	if rest[i:word] != "pagebreak" {
		return false
	}
	lineEnd := strings.IndexByte(rest, '\n')
	if lineEnd < 0 {
		s.pos = len(s.src)
	} else {
		s.pos += lineEnd + 1
	}
	s.emit(Fragment{Kind: FragmentPageBreak})
	s.lineStart = true
	return true
}

// tryCommand parses the command starting at the current backslash. It
// returns false when the sequence is not a recognized, well-formed command,
// leaving the scanner position untouched so the text path picks it up.
func (s *scanner) tryCommand() bool {
	name, nameEnd := s.commandName()
	switch name {
	case "begin":
		return s.scanEnvironment(nameEnd)
	case "image":
		return s.scanMedia(FragmentImage, nameEnd)
	case "video":
		return s.scanMedia(FragmentVideo, nameEnd)
	case "manim":
		return s.scanInlineAnimation(nameEnd)
	case "newpage", "breakpage":
		s.pos = nameEnd
		s.lineStart = false
		s.emit(Fragment{Kind: FragmentPageBreak})
		return true
	}
	return false
}

// commandName returns the letter run following the backslash at s.pos and
// the offset just past it. An empty name means an escaped or stray backslash.
func (s *scanner) commandName() (string, int) {
	start := s.pos + 1
	end := start
	for end < len(s.src) && isLetter(s.src[end]) {
		end++
	}
	return s.src[start:end], end
}

// scanEnvironment consumes \begin{manim}...\end{manim}. Other environments
// and malformed begins stay literal text.
func (s *scanner) scanEnvironment(nameEnd int) bool {
	if nameEnd >= len(s.src) || s.src[nameEnd] != '{' {
		return false
	}
	env, bodyStart, ok := s.braceArg(nameEnd)
	if !ok || env != "manim" {
		return false
	}
	rel := strings.Index(s.src[bodyStart:], envEnd)
	if rel < 0 {
		// Unterminated environment: the begin token itself becomes text.
		s.text.WriteString(envBegin)
		s.pos = bodyStart
		s.lineStart = false
		return true
	}
	payload := strings.TrimSpace(s.src[bodyStart : bodyStart+rel])
	s.pos = bodyStart + rel + len(envEnd)
	s.lineStart = false
	s.emit(Fragment{Kind: FragmentAnimationScene, Payload: payload})
	return true
}

func (s *scanner) scanMedia(kind FragmentKind, nameEnd int) bool {
	options, argStart, ok := s.optionalArg(nameEnd)
	if !ok {
		return false
	}
	if argStart >= len(s.src) || s.src[argStart] != '{' {
		return false
	}
	path, end, ok := s.braceArg(argStart)
	if !ok {
		return false
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return false
	}
	s.pos = end
	s.lineStart = false
	s.emit(Fragment{Kind: kind, Payload: path, Options: options})
	return true
}

func (s *scanner) scanInlineAnimation(nameEnd int) bool {
	options, argStart, ok := s.optionalArg(nameEnd)
	if !ok {
		return false
	}
	if argStart >= len(s.src) || s.src[argStart] != '{' {
		return false
	}
	code, end, ok := s.braceArg(argStart)
	if !ok {
		return false
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	s.pos = end
	s.lineStart = false
	s.emit(Fragment{Kind: FragmentAnimationInline, Payload: code, Options: options})
	return true
}

// optionalArg parses a leading [key=value,...] bracket when present.
// The returned offset points at the byte following the bracket (or nameEnd
// unchanged when no bracket is present). Unterminated brackets are malformed.
func (s *scanner) optionalArg(nameEnd int) (map[string]string, int, bool) {
	if nameEnd >= len(s.src) || s.src[nameEnd] != '[' {
		return nil, nameEnd, true
	}
	closing := strings.IndexByte(s.src[nameEnd:], ']')
	if closing < 0 {
		return nil, 0, false
	}
	raw := s.src[nameEnd+1 : nameEnd+closing]
	return ParseOptions(raw), nameEnd + closing + 1, true
}

// braceArg parses a balanced {...} argument starting at an opening brace,
// returning the inner content and the offset past the closing brace.
func (s *scanner) braceArg(open int) (string, int, bool) {
	depth := 0
	for i := open; i < len(s.src); i++ {
		switch s.src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s.src[open+1 : i], i + 1, true
			}
		}
	}
	return "", 0, false
}

func (s *scanner) emit(frag Fragment) {
	s.flushText()
	if frag.Kind == FragmentPageBreak {
		if n := len(s.fragments); n > 0 && s.fragments[n-1].Kind == FragmentPageBreak {
			return
		}
	}
	s.fragments = append(s.fragments, frag)
}

func (s *scanner) flushText() {
	if s.text.Len() == 0 {
		return
	}
	payload := strings.TrimSpace(s.text.String())
	s.text.Reset()
	if payload == "" {
		return
	}
	s.fragments = append(s.fragments, Fragment{Kind: FragmentText, Payload: payload})
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
