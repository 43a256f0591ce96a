package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"pandora/internal/document"
	"pandora/internal/services"
)

const component = "archive"

// entryModified is the constant timestamp stamped onto every archive entry.
// Real modification times would make otherwise identical archives differ.
var entryModified = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// Write assembles the archive for manifest at outputPath. Every non-failed
// block must have its asset staged under stagingDir at its asset reference;
// failed blocks appear in the manifest only. The archive is written to a
// temporary sibling and renamed into place, so outputPath either holds a
// complete archive or remains untouched.
func Write(ctx context.Context, outputPath string, manifest *document.Manifest, stagingDir string) error {
	if manifest == nil {
		return services.Wrap(services.ErrStructural, component, "write", "nil manifest", nil)
	}
	if err := manifest.Validate(); err != nil {
		return services.Wrap(services.ErrStructural, component, "write", "manifest invalid", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(services.ErrStructural, component, "write", "create output directory", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(outputPath), "."+filepath.Base(outputPath)+".tmp-")
	if err != nil {
		return services.Wrap(services.ErrStructural, component, "write", "create temporary archive", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := writeEntries(ctx, tmp, manifest, stagingDir); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return services.Wrap(services.ErrStructural, component, "write", "flush archive", err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		return services.Wrap(services.ErrStructural, component, "write", "move archive into place", err)
	}
	return nil
}

func writeEntries(ctx context.Context, w io.Writer, manifest *document.Manifest, stagingDir string) error {
	zw := zip.NewWriter(w)

	meta, err := manifest.Marshal()
	if err != nil {
		return services.Wrap(services.ErrStructural, component, "write", "marshal manifest", err)
	}
	if err := writeEntry(zw, document.ManifestName, func(dst io.Writer) error {
		_, err := dst.Write(meta)
		return err
	}); err != nil {
		return services.Wrap(services.ErrStructural, component, "write", "write manifest entry", err)
	}

	for _, block := range manifest.Blocks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if block.Failed() {
			continue
		}
		src := filepath.Join(stagingDir, filepath.FromSlash(block.AssetRef))
		if err := writeEntry(zw, block.AssetRef, func(dst io.Writer) error {
			return copyAsset(dst, src)
		}); err != nil {
			return services.Wrap(services.ErrStructural, component, "write",
				fmt.Sprintf("stage asset %s for block %d", block.AssetRef, block.SequenceIndex), err)
		}
	}

	if err := zw.Close(); err != nil {
		return services.Wrap(services.ErrStructural, component, "write", "finalize archive", err)
	}
	return nil
}

// writeEntry creates one archive entry with the deterministic header.
func writeEntry(zw *zip.Writer, name string, fill func(io.Writer) error) error {
	dst, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: entryModified,
	})
	if err != nil {
		return err
	}
	return fill(dst)
}

func copyAsset(dst io.Writer, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	_, err = io.Copy(dst, in)
	return err
}
