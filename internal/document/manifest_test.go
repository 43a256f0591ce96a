package document_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"pandora/internal/document"
)

func validManifest() *document.Manifest {
	return &document.Manifest{
		FormatVersion: document.FormatVersion,
		LayoutMode:    document.LayoutSingleColumn,
		Blocks: []document.Block{
			{SequenceIndex: 0, Kind: document.KindText, Options: map[string]string{}, AssetRef: document.TextAssetRef(0)},
			{SequenceIndex: 1, Kind: document.KindImage, Options: map[string]string{"width": "50%", "scale": "1.2"}, AssetRef: "images/fig.png"},
			{SequenceIndex: 2, Kind: document.KindText, Options: map[string]string{}, AssetRef: document.TextAssetRef(2), PageBreakBefore: true},
		},
	}
}

func TestManifestMarshalIsDeterministic(t *testing.T) {
	m := validManifest()
	first, err := m.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := m.Marshal()
	if err != nil {
		t.Fatalf("marshal again: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("marshal output changed between runs:\n%s\n---\n%s", first, second)
	}
	if !bytes.HasSuffix(first, []byte("\n")) {
		t.Fatal("expected trailing newline")
	}
	text := string(first)
	if !strings.Contains(text, `"layout_mode": "single-column"`) {
		t.Fatalf("missing layout mode key: %s", text)
	}
	if strings.Index(text, `"scale"`) > strings.Index(text, `"width"`) {
		t.Fatalf("expected sorted option keys: %s", text)
	}
	if strings.Contains(text, "raw_payload") {
		t.Fatalf("payload must not be serialized: %s", text)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	m := validManifest()
	data, err := m.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	parsed, err := document.ParseManifest(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := parsed.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if parsed.LayoutMode != document.LayoutSingleColumn {
		t.Fatalf("layout mode = %q", parsed.LayoutMode)
	}
	if len(parsed.Blocks) != 3 {
		t.Fatalf("blocks = %d, want 3", len(parsed.Blocks))
	}
	if !parsed.Blocks[2].PageBreakBefore {
		t.Fatal("page break flag lost in round trip")
	}
	if parsed.Blocks[1].Options["width"] != "50%" {
		t.Fatalf("options lost: %#v", parsed.Blocks[1].Options)
	}
}

func TestValidateRejectsIndexGap(t *testing.T) {
	m := validManifest()
	m.Blocks[2].SequenceIndex = 5
	err := m.Validate()
	var verr *document.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.BlockIndex != 2 {
		t.Fatalf("BlockIndex = %d, want 2", verr.BlockIndex)
	}
}

func TestValidateRejectsNullAssetRef(t *testing.T) {
	raw := `{
  "format_version": 1,
  "layout_mode": "single-column",
  "blocks": [
    {"sequence_index": 0, "kind": "image", "options": {}, "asset_ref": null, "page_break_before": false}
  ]
}`
	m, err := document.ParseManifest([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	err = m.Validate()
	var verr *document.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.BlockIndex != 0 {
		t.Fatalf("BlockIndex = %d, want 0", verr.BlockIndex)
	}
	if !strings.Contains(verr.Reason, "sequence_index 0") {
		t.Fatalf("reason should name the block: %q", verr.Reason)
	}
}

func TestValidateRejectsUnknownKind(t *testing.T) {
	m := validManifest()
	m.Blocks[1].Kind = document.Kind("figure")
	if err := m.Validate(); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestValidateRejectsDuplicateAssetRef(t *testing.T) {
	m := validManifest()
	m.Blocks[2].AssetRef = m.Blocks[0].AssetRef
	err := m.Validate()
	if err == nil || !strings.Contains(err.Error(), "already used") {
		t.Fatalf("expected duplicate ref error, got %v", err)
	}
}

func TestValidateRejectsEscapingAssetRef(t *testing.T) {
	m := validManifest()
	m.Blocks[1].AssetRef = "../outside.png"
	if err := m.Validate(); err == nil {
		t.Fatal("expected error for escaping path")
	}
}

func TestValidateRejectsNewerFormatVersion(t *testing.T) {
	m := validManifest()
	m.FormatVersion = document.FormatVersion + 1
	err := m.Validate()
	var verr *document.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.BlockIndex != -1 {
		t.Fatalf("BlockIndex = %d, want -1", verr.BlockIndex)
	}
}

func TestValidateAcceptsFailureSentinel(t *testing.T) {
	m := validManifest()
	m.Blocks[1].AssetRef = document.AssetRefFailed
	if err := m.Validate(); err != nil {
		t.Fatalf("sentinel ref should validate: %v", err)
	}
	if !m.Blocks[1].Failed() {
		t.Fatal("Failed() should report sentinel refs")
	}
}
