package render_test

import (
	"path/filepath"
	"testing"

	"pandora/internal/document"
	"pandora/internal/render"
)

func TestPlanAssignsRenderedRefs(t *testing.T) {
	jobs := render.Plan([]document.Block{
		{SequenceIndex: 0, Kind: document.KindText, RawPayload: "hi"},
		{SequenceIndex: 1, Kind: document.KindAnimationScene, RawPayload: "self.wait()"},
		{SequenceIndex: 2, Kind: document.KindAnimationInline, RawPayload: "self.wait()"},
	}, "/docs")

	want := []string{"latex/block_0.svg", "animations/scene_1.mp4", "animations/scene_2.mp4"}
	for i, job := range jobs {
		if job.Block.AssetRef != want[i] {
			t.Fatalf("job %d ref = %q, want %q", i, job.Block.AssetRef, want[i])
		}
		if job.SourcePath != "" {
			t.Fatalf("rendered job %d should have no source path", i)
		}
	}
}

func TestPlanResolvesMediaSources(t *testing.T) {
	jobs := render.Plan([]document.Block{
		{SequenceIndex: 0, Kind: document.KindImage, RawPayload: "figs/pic.png"},
		{SequenceIndex: 1, Kind: document.KindVideo, RawPayload: "/abs/clip.mp4"},
	}, "/docs")

	if jobs[0].SourcePath != filepath.Join("/docs", "figs", "pic.png") {
		t.Fatalf("relative source = %q", jobs[0].SourcePath)
	}
	if jobs[0].Block.AssetRef != "images/pic.png" {
		t.Fatalf("image ref = %q", jobs[0].Block.AssetRef)
	}
	if jobs[1].SourcePath != filepath.Clean("/abs/clip.mp4") {
		t.Fatalf("absolute source = %q", jobs[1].SourcePath)
	}
	if jobs[1].Block.AssetRef != "videos/clip.mp4" {
		t.Fatalf("video ref = %q", jobs[1].Block.AssetRef)
	}
}

func TestPlanDisambiguatesCollidingBasenames(t *testing.T) {
	jobs := render.Plan([]document.Block{
		{SequenceIndex: 0, Kind: document.KindImage, RawPayload: "a/pic.png"},
		{SequenceIndex: 1, Kind: document.KindImage, RawPayload: "b/pic.png"},
		{SequenceIndex: 2, Kind: document.KindImage, RawPayload: "a/pic.png"},
	}, "/docs")

	want := []string{"images/pic.png", "images/pic_2.png", "images/pic_3.png"}
	for i, job := range jobs {
		if job.Block.AssetRef != want[i] {
			t.Fatalf("job %d ref = %q, want %q", i, job.Block.AssetRef, want[i])
		}
	}
}

func TestPlanNamespacesDoNotCollide(t *testing.T) {
	jobs := render.Plan([]document.Block{
		{SequenceIndex: 0, Kind: document.KindImage, RawPayload: "poster.png"},
		{SequenceIndex: 1, Kind: document.KindVideo, RawPayload: "poster.png"},
	}, ".")

	if jobs[0].Block.AssetRef != "images/poster.png" {
		t.Fatalf("image ref = %q", jobs[0].Block.AssetRef)
	}
	if jobs[1].Block.AssetRef != "videos/poster.png" {
		t.Fatalf("video ref = %q", jobs[1].Block.AssetRef)
	}
}
