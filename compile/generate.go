package compile

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	fixzip "github.com/hidez8891/zip"
	"go.uber.org/zap"

	"stylec/misc"
	"stylec/state"
)

const (
	// ManifestName is the bundle description entry, always written first.
	ManifestName = "MANIFEST"
	// StylesheetName is the stylesheet entry name inside a bundle.
	StylesheetName = "stylesheet.css"
	// PreviewName is the preview page entry name inside a bundle.
	PreviewName = "preview.xhtml"
)

// saveCSS writes the stylesheet to outputPath and, when requested, the
// preview page next to it. Asset references stay as authored.
func saveCSS(ctx context.Context, d *Document, outputPath string, sheet []byte, log *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)

	log.Info("Generating stylesheet", zap.Stringer("format", d.Format), zap.String("output", outputPath))

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, sheet, 0644); err != nil {
		return fmt.Errorf("unable to write stylesheet: %w", err)
	}

	if env.Cfg.Document.Preview.Generate {
		page, err := renderPreview(buildPreview(d, filepath.Base(outputPath), env))
		if err != nil {
			return fmt.Errorf("unable to render preview: %w", err)
		}
		previewPath := previewFileName(outputPath)
		if err := os.WriteFile(previewPath, page, 0644); err != nil {
			return fmt.Errorf("unable to write preview: %w", err)
		}
		log.Debug("Preview page written", zap.String("path", previewPath))
	}
	return nil
}

// saveBundle writes the zip bundle: stylesheet, optional preview page and
// every loaded asset. The archive is assembled in the document workdir and
// moved into place when complete, a failed run leaves no partial output.
func saveBundle(ctx context.Context, d *Document, outputPath string, sheet []byte, assets []Asset, log *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)

	log.Info("Generating bundle", zap.Stringer("format", d.Format), zap.String("output", outputPath))

	_, tmpName := filepath.Split(outputPath)
	tmpName = filepath.Join(d.WorkDir, tmpName)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	f, err := os.Create(tmpName)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	names := []string{StylesheetName}
	if env.Cfg.Document.Preview.Generate {
		names = append(names, PreviewName)
	}
	for _, a := range assets {
		names = append(names, a.Filename)
	}
	if err := writeDataToZip(zw, ManifestName, bundleManifest(d, names)); err != nil {
		return fmt.Errorf("unable to write manifest: %w", err)
	}

	if err := writeDataToZip(zw, StylesheetName, sheet); err != nil {
		return fmt.Errorf("unable to write stylesheet: %w", err)
	}

	if env.Cfg.Document.Preview.Generate {
		page, err := renderPreview(buildPreview(d, StylesheetName, env))
		if err != nil {
			return fmt.Errorf("unable to render preview: %w", err)
		}
		if err := writeDataToZip(zw, PreviewName, page); err != nil {
			return fmt.Errorf("unable to write preview: %w", err)
		}
	}

	for _, a := range assets {
		if err := writeDataToZip(zw, a.Filename, a.Data); err != nil {
			return fmt.Errorf("unable to write asset %s: %w", a.Filename, err)
		}
	}

	// make sure buffers are flushed before continuing
	if err := zw.Close(); err != nil {
		return fmt.Errorf("unable to close output archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("unable to finalize output file: %w", err)
	}
	// clean temporary file
	defer os.Remove(tmpName)

	if env.Cfg.Document.FixZip {
		return copyZipWithoutDataDescriptors(tmpName, outputPath)
	}
	return copyFile(tmpName, outputPath)
}

// bundleManifest describes the bundle for consumers: theme identity,
// generator and the list of entries in archive order.
func bundleManifest(d *Document, names []string) []byte {
	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "Theme: %s\n", d.Theme.Name)
	fmt.Fprintf(buf, "ID: %s\n", d.Theme.ID)
	fmt.Fprintf(buf, "Generator: %s %s\n", misc.GetAppName(), misc.GetVersion())
	fmt.Fprintf(buf, "Created: %s\n", time.Now().UTC().Format(time.RFC3339))
	buf.WriteByte('\n')
	for _, name := range names {
		buf.WriteString(name)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func writeDataToZip(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func copyZipWithoutDataDescriptors(from, to string) error {

	out, err := os.Create(to)
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", to, err)
	}
	defer out.Close()

	r, err := fixzip.OpenReader(from)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", from, err)
	}
	defer r.Close()

	w := fixzip.NewWriter(out)
	defer w.Close()

	for _, file := range r.File {
		// unset data descriptor flag.
		file.Flags &= ^fixzip.FlagDataDescriptor

		// copy zip entry
		if err := w.CopyFile(file); err != nil {
			return fmt.Errorf("unable to write target file (%s): %w", to, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {

	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceFile.Close()

	destinationFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destinationFile.Close()

	if _, err = io.Copy(destinationFile, sourceFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	if err = destinationFile.Close(); err != nil {
		return fmt.Errorf("failed to close destination file: %w", err)
	}
	return nil
}
