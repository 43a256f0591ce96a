package markup_test

import (
	"testing"

	"pandora/internal/markup"
)

func TestParseOptions(t *testing.T) {
	opts := markup.ParseOptions("width=50%, quality = high ,loop=true")
	if len(opts) != 3 {
		t.Fatalf("option count = %d (%#v)", len(opts), opts)
	}
	if opts["width"] != "50%" || opts["quality"] != "high" || opts["loop"] != "true" {
		t.Fatalf("options = %#v", opts)
	}
}

func TestParseOptionsSkipsMalformedEntries(t *testing.T) {
	opts := markup.ParseOptions("autoplay, =orphan, scale=2")
	if len(opts) != 1 || opts["scale"] != "2" {
		t.Fatalf("options = %#v", opts)
	}
}

func TestParseOptionsLaterDuplicateWins(t *testing.T) {
	opts := markup.ParseOptions("width=10,width=90")
	if opts["width"] != "90" {
		t.Fatalf("width = %q", opts["width"])
	}
}

func TestParseOptionsEmptyInput(t *testing.T) {
	if opts := markup.ParseOptions(""); opts != nil {
		t.Fatalf("expected nil map, got %#v", opts)
	}
	if opts := markup.ParseOptions(" ,  , "); opts != nil {
		t.Fatalf("expected nil map, got %#v", opts)
	}
}

func TestParseOptionsValueMayContainEquals(t *testing.T) {
	opts := markup.ParseOptions("filter=key=value")
	if opts["filter"] != "key=value" {
		t.Fatalf("filter = %q", opts["filter"])
	}
}
