package compile

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stylec/config"
	"stylec/state"
)

func simpleThemeSource(name string) string {
	return "name: " + name + "\ncomponents:\n  page:\n    color: red\n"
}

func writeTestFile(t *testing.T, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func writeThemeArchive(t *testing.T, path string, entries map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create archive: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
		if err != nil {
			t.Fatalf("Failed to create archive entry: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write archive entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close archive: %v", err)
	}
}

// TestProcessTheme_CSS tests single theme compilation to a stylesheet with
// asset references validated against the source directory.
func TestProcessTheme_CSS(t *testing.T) {
	ctx, logger := setupTestContext(t, "")
	env := state.EnvFromContext(ctx)
	env.Cfg.Document.OutputNameTemplate = ""

	srcDir := t.TempDir()
	writeTestFile(t, filepath.Join(srcDir, "fonts", "heading.woff2"), woff2Bytes())
	dst := t.TempDir()

	err := processTheme(ctx, strings.NewReader(themeDocSource), "dark.yaml", srcDir, dst, config.OutputFmtCss, logger)
	if err != nil {
		t.Fatalf("processTheme() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dst, "dark.css"))
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	css := string(data)
	if !strings.Contains(css, ".page {") {
		t.Errorf("output misses the component rule:\n%s", css)
	}
	// css output keeps references as authored
	if !strings.Contains(css, `url("fonts/heading.woff2")`) {
		t.Errorf("output misses the font reference:\n%s", css)
	}
}

// TestProcessTheme_DebugReport tests that a debug run keeps the rendered
// stylesheet with the workdir, reaching the report archive on cleanup.
func TestProcessTheme_DebugReport(t *testing.T) {
	ctx, logger := setupTestContext(t, "")
	env := state.EnvFromContext(ctx)
	env.Cfg.Document.OutputNameTemplate = ""
	env.Debug = true

	conf := &config.ReporterConfig{Destination: filepath.Join(t.TempDir(), "report.zip")}
	rpt, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Failed to prepare reporter: %v", err)
	}
	env.Rpt = rpt

	srcDir := t.TempDir()
	writeTestFile(t, filepath.Join(srcDir, "fonts", "heading.woff2"), woff2Bytes())
	dst := t.TempDir()

	if err := processTheme(ctx, strings.NewReader(themeDocSource), "dark.yaml", srcDir, dst, config.OutputFmtCss, logger); err != nil {
		t.Fatalf("processTheme() error = %v", err)
	}
	report := rpt.Name()
	if err := rpt.Close(); err != nil {
		t.Fatalf("Failed to close report: %v", err)
	}

	found := false
	for name := range readZipEntries(t, report) {
		if strings.HasSuffix(name, "/"+StylesheetName) {
			found = true
			break
		}
	}
	if !found {
		t.Error("report does not carry the rendered stylesheet")
	}
}

// TestProcessTheme_Bundle tests bundle output: stylesheet entry with
// rewritten references plus the loaded asset.
func TestProcessTheme_Bundle(t *testing.T) {
	ctx, logger := setupTestContext(t, "")
	env := state.EnvFromContext(ctx)
	env.Cfg.Document.OutputNameTemplate = ""

	srcDir := t.TempDir()
	writeTestFile(t, filepath.Join(srcDir, "fonts", "heading.woff2"), woff2Bytes())
	dst := t.TempDir()

	err := processTheme(ctx, strings.NewReader(themeDocSource), "dark.yaml", srcDir, dst, config.OutputFmtBundle, logger)
	if err != nil {
		t.Fatalf("processTheme() error = %v", err)
	}

	entries := readZipEntries(t, filepath.Join(dst, "dark.zip"))
	css := string(entries[StylesheetName])
	if !strings.Contains(css, `url("assets/heading.woff2")`) {
		t.Errorf("stylesheet entry not rewritten to the bundled asset:\n%s", css)
	}
	if !bytes.Equal(entries["assets/heading.woff2"], woff2Bytes()) {
		t.Error("asset entry does not match the source file")
	}
}

// TestProcessTheme_PreviewPair tests stylesheet output with the preview page
// written next to it, the way the preview subcommand configures a run.
func TestProcessTheme_PreviewPair(t *testing.T) {
	ctx, logger := setupTestContext(t, "")
	env := state.EnvFromContext(ctx)
	env.Cfg.Document.OutputNameTemplate = ""
	env.Cfg.Document.Preview.Generate = true

	srcDir := t.TempDir()
	dst := t.TempDir()

	err := processTheme(ctx, strings.NewReader(simpleThemeSource("Plain")), "plain.yaml", srcDir, dst, config.OutputFmtCss, logger)
	if err != nil {
		t.Fatalf("processTheme() error = %v", err)
	}

	page, err := os.ReadFile(filepath.Join(dst, "plain.xhtml"))
	if err != nil {
		t.Fatalf("Failed to read preview page: %v", err)
	}
	if !strings.Contains(string(page), `href="plain.css"`) {
		t.Errorf("preview page does not link the stylesheet:\n%s", page)
	}
	if _, err := os.Stat(filepath.Join(dst, "plain.css")); err != nil {
		t.Errorf("expected stylesheet missing: %v", err)
	}
}

// TestProcessTheme_Overwrite tests that existing output is refused unless
// overwriting is enabled.
func TestProcessTheme_Overwrite(t *testing.T) {
	ctx, logger := setupTestContext(t, "")
	env := state.EnvFromContext(ctx)
	env.Cfg.Document.OutputNameTemplate = ""

	srcDir := t.TempDir()
	dst := t.TempDir()
	outPath := filepath.Join(dst, "plain.css")
	writeTestFile(t, outPath, []byte("old"))

	err := processTheme(ctx, strings.NewReader(simpleThemeSource("Plain")), "plain.yaml", srcDir, dst, config.OutputFmtCss, logger)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("processTheme() error = %v, want refusal to overwrite", err)
	}

	env.Overwrite = true
	err = processTheme(ctx, strings.NewReader(simpleThemeSource("Plain")), "plain.yaml", srcDir, dst, config.OutputFmtCss, logger)
	if err != nil {
		t.Fatalf("processTheme() error = %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if string(data) == "old" {
		t.Error("output was not replaced")
	}
}

// TestProcessTheme_MissingAsset tests that a dangling reference fails the
// theme when validation is on and passes when it is off.
func TestProcessTheme_MissingAsset(t *testing.T) {
	ctx, logger := setupTestContext(t, "")
	env := state.EnvFromContext(ctx)
	env.Cfg.Document.OutputNameTemplate = ""

	srcDir := t.TempDir() // no font file on disk
	dst := t.TempDir()

	err := processTheme(ctx, strings.NewReader(themeDocSource), "dark.yaml", srcDir, dst, config.OutputFmtCss, logger)
	if err == nil || !strings.Contains(err.Error(), "asset validation") {
		t.Fatalf("processTheme() error = %v, want asset validation failure", err)
	}

	env.Cfg.Document.Assets.Validate = false
	err = processTheme(ctx, strings.NewReader(themeDocSource), "dark.yaml", srcDir, dst, config.OutputFmtCss, logger)
	if err != nil {
		t.Fatalf("processTheme() error = %v", err)
	}
}

// TestProcess_SingleFile tests dispatching a plain theme file path.
func TestProcess_SingleFile(t *testing.T) {
	ctx, logger := setupTestContext(t, "")
	env := state.EnvFromContext(ctx)
	env.Cfg.Document.OutputNameTemplate = ""

	srcDir := t.TempDir()
	path := filepath.Join(srcDir, "dark.yaml")
	writeTestFile(t, path, []byte(themeDocSource))
	writeTestFile(t, filepath.Join(srcDir, "fonts", "heading.woff2"), woff2Bytes())
	dst := t.TempDir()

	if err := process(ctx, path, dst, config.OutputFmtCss, logger); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "dark.css")); err != nil {
		t.Errorf("expected output missing: %v", err)
	}
}

// TestProcess_Directory tests recursive directory processing: nested themes
// keep their relative paths, other files are ignored.
func TestProcess_Directory(t *testing.T) {
	ctx, logger := setupTestContext(t, "")
	env := state.EnvFromContext(ctx)
	env.Cfg.Document.OutputNameTemplate = ""

	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "a.yaml"), []byte(simpleThemeSource("A")))
	writeTestFile(t, filepath.Join(root, "sub", "b.yaml"), []byte(simpleThemeSource("B")))
	writeTestFile(t, filepath.Join(root, "note.txt"), []byte("not a theme"))
	dst := t.TempDir()

	if err := process(ctx, root, dst, config.OutputFmtCss, logger); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	for _, want := range []string{
		filepath.Join(dst, "a.css"),
		filepath.Join(dst, "sub", "b.css"),
	} {
		if _, err := os.Stat(want); err != nil {
			t.Errorf("expected output missing: %v", err)
		}
	}
	if _, err := os.Stat(filepath.Join(dst, "note.css")); !os.IsNotExist(err) {
		t.Error("non-theme file produced output")
	}
}

// TestProcess_DirectoryStopOnError tests batch error handling around a theme
// that fails to compile.
func TestProcess_DirectoryStopOnError(t *testing.T) {
	badTheme := "name: Bad\ncomponents:\n  page:\n    bogus:\n      color: red\n"

	t.Run("stop on first failure", func(t *testing.T) {
		ctx, logger := setupTestContext(t, "")
		env := state.EnvFromContext(ctx)
		env.Cfg.Document.OutputNameTemplate = ""
		env.StopOnError = true

		root := t.TempDir()
		writeTestFile(t, filepath.Join(root, "bad.yaml"), []byte(badTheme))
		writeTestFile(t, filepath.Join(root, "good.yaml"), []byte(simpleThemeSource("Good")))

		if err := process(ctx, root, t.TempDir(), config.OutputFmtCss, logger); err == nil {
			t.Error("process() expected error with stop-on-error set")
		}
	})

	t.Run("keep going by default", func(t *testing.T) {
		ctx, logger := setupTestContext(t, "")
		env := state.EnvFromContext(ctx)
		env.Cfg.Document.OutputNameTemplate = ""

		root := t.TempDir()
		writeTestFile(t, filepath.Join(root, "bad.yaml"), []byte(badTheme))
		writeTestFile(t, filepath.Join(root, "good.yaml"), []byte(simpleThemeSource("Good")))
		dst := t.TempDir()

		if err := process(ctx, root, dst, config.OutputFmtCss, logger); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		if _, err := os.Stat(filepath.Join(dst, "good.css")); err != nil {
			t.Errorf("surviving theme not compiled: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dst, "bad.css")); !os.IsNotExist(err) {
			t.Error("failing theme produced output")
		}
	})
}

// TestProcess_Archive tests processing theme documents from a zip archive,
// entry paths carried into the destination.
func TestProcess_Archive(t *testing.T) {
	ctx, logger := setupTestContext(t, "")
	env := state.EnvFromContext(ctx)
	env.Cfg.Document.OutputNameTemplate = ""

	dir := t.TempDir()
	arcPath := filepath.Join(dir, "themes.zip")
	writeThemeArchive(t, arcPath, map[string]string{
		"themes/dark.yaml": simpleThemeSource("Dark"),
		"themes/notes.txt": "not a theme",
	})
	dst := t.TempDir()

	if err := process(ctx, arcPath, dst, config.OutputFmtCss, logger); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "themes", "dark.css")); err != nil {
		t.Errorf("expected output missing: %v", err)
	}
}

// TestProcess_ArchiveSubPath tests the path-into-archive source form, only
// entries under the inner path are processed.
func TestProcess_ArchiveSubPath(t *testing.T) {
	ctx, logger := setupTestContext(t, "")
	env := state.EnvFromContext(ctx)
	env.Cfg.Document.OutputNameTemplate = ""

	dir := t.TempDir()
	arcPath := filepath.Join(dir, "themes.zip")
	writeThemeArchive(t, arcPath, map[string]string{
		"a/one.yaml": simpleThemeSource("One"),
		"b/two.yaml": simpleThemeSource("Two"),
	})
	dst := t.TempDir()

	if err := process(ctx, filepath.Join(arcPath, "a"), dst, config.OutputFmtCss, logger); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "a", "one.css")); err != nil {
		t.Errorf("expected output missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "b", "two.css")); !os.IsNotExist(err) {
		t.Error("entry outside the inner path was processed")
	}
}

// TestProcess_ArchiveExtensionWalk tests that without a path into the
// archive candidates are picked by theme extension at any depth, extension
// case ignored.
func TestProcess_ArchiveExtensionWalk(t *testing.T) {
	ctx, logger := setupTestContext(t, "")
	env := state.EnvFromContext(ctx)
	env.Cfg.Document.OutputNameTemplate = ""

	dir := t.TempDir()
	arcPath := filepath.Join(dir, "themes.zip")
	writeThemeArchive(t, arcPath, map[string]string{
		"bundle/deep/dark.YAML": simpleThemeSource("Dark"),
		"bundle/readme.txt":     "not a theme",
	})
	dst := t.TempDir()

	if err := process(ctx, arcPath, dst, config.OutputFmtCss, logger); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "bundle", "deep", "dark.css")); err != nil {
		t.Errorf("expected output missing: %v", err)
	}
}

// TestProcess_BadSource tests source dispatch failures.
func TestProcess_BadSource(t *testing.T) {
	ctx, logger := setupTestContext(t, "")

	t.Run("missing path", func(t *testing.T) {
		err := process(ctx, filepath.Join(t.TempDir(), "no", "such.yaml"), t.TempDir(), config.OutputFmtCss, logger)
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("process() error = %v, want not-found", err)
		}
	})

	t.Run("not a theme", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plain.txt")
		writeTestFile(t, path, []byte("hello"))
		err := process(ctx, path, t.TempDir(), config.OutputFmtCss, logger)
		if err == nil || !strings.Contains(err.Error(), "not recognized") {
			t.Errorf("process() error = %v, want not-recognized", err)
		}
	})
}
