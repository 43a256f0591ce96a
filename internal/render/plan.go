package render

import (
	"fmt"
	"path"
	"path/filepath"

	"pandora/internal/document"
)

// Job pairs a block with the source it renders or copies from. SourcePath
// is set for media blocks only; rendered kinds carry their input in the
// block payload.
type Job struct {
	Block      document.Block
	SourcePath string
}

// Plan assigns every block its asset reference and resolves media sources
// against baseDir, the directory of the input document. References are
// unique within the archive: a media basename that is already taken gets a
// numbered variant, and repeated use of the same source file stores a fresh
// copy each time.
func Plan(blocks []document.Block, baseDir string) []Job {
	jobs := make([]Job, 0, len(blocks))
	taken := map[string]map[string]bool{
		document.NamespaceImages: {},
		document.NamespaceVideos: {},
	}

	for _, block := range blocks {
		job := Job{Block: block}
		switch block.Kind {
		case document.KindText:
			job.Block.AssetRef = document.TextAssetRef(block.SequenceIndex)
		case document.KindAnimationScene, document.KindAnimationInline:
			job.Block.AssetRef = document.AnimationAssetRef(block.SequenceIndex)
		case document.KindImage:
			job.SourcePath = resolveSource(baseDir, block.RawPayload)
			job.Block.AssetRef = claimMediaRef(taken[document.NamespaceImages], document.NamespaceImages, block.RawPayload)
		case document.KindVideo:
			job.SourcePath = resolveSource(baseDir, block.RawPayload)
			job.Block.AssetRef = claimMediaRef(taken[document.NamespaceVideos], document.NamespaceVideos, block.RawPayload)
		}
		jobs = append(jobs, job)
	}
	return jobs
}

func resolveSource(baseDir, source string) string {
	if filepath.IsAbs(source) {
		return filepath.Clean(source)
	}
	return filepath.Join(baseDir, source)
}

// claimMediaRef reserves a basename inside the namespace. The first use of
// a name keeps it; later collisions append a counter starting at 2.
func claimMediaRef(taken map[string]bool, namespace, source string) string {
	base := path.Base(filepath.ToSlash(source))
	name := base
	ext := path.Ext(base)
	stem := base[:len(base)-len(ext)]
	for n := 2; taken[name]; n++ {
		name = fmt.Sprintf("%s_%d%s", stem, n, ext)
	}
	taken[name] = true
	return namespace + "/" + name
}
