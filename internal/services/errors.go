package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedInput marks input files that cannot be read at all.
	// Malformed markup never raises this; the segmenter degrades to text.
	ErrMalformedInput = errors.New("malformed input")
	// ErrRenderFailure marks a per-block renderer failure. The compile
	// continues; the block records the failure sentinel.
	ErrRenderFailure = errors.New("render failure")
	// ErrStructural marks failures that abort the whole compile: unwritable
	// staging, archive write errors, invalid configuration.
	ErrStructural = errors.New("structural failure")
	// ErrToolMissing marks a renderer binary absent from PATH.
	ErrToolMissing = errors.New("renderer tool missing")
	// ErrTimeout marks a renderer exceeding its configured deadline.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrStructural
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsBlockFailure reports whether err is a per-block render problem that the
// compile tolerates, as opposed to a structural failure that aborts it.
// Callers must check for compile cancellation before consulting this.
func IsBlockFailure(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRenderFailure) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrToolMissing)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
