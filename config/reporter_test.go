package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReport_Roundtrip(t *testing.T) {
	tmpDir := t.TempDir()

	themePath := filepath.Join(tmpDir, "theme.yaml")
	if err := os.WriteFile(themePath, []byte("name: test\n"), 0644); err != nil {
		t.Fatalf("failed to write theme file: %v", err)
	}

	assetsDir := filepath.Join(tmpDir, "assets")
	if err := os.MkdirAll(assetsDir, 0755); err != nil {
		t.Fatalf("failed to create assets dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(assetsDir, "font.woff2"), []byte("not really a font"), 0644); err != nil {
		t.Fatalf("failed to write asset: %v", err)
	}

	conf := &ReporterConfig{Destination: filepath.Join(tmpDir, "report.zip")}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("ReporterConfig.Prepare() error = %v", err)
	}

	r.StoreData("stylesheet.css", []byte(".card{color:red;}"))
	r.Store("theme.yaml", themePath)
	if err := r.StoreCopy("assets", assetsDir); err != nil {
		t.Fatalf("StoreCopy() error = %v", err)
	}

	if len(r.Name()) == 0 {
		t.Error("Report.Name() should not be empty")
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Report.Close() error = %v", err)
	}

	zr, err := zip.OpenReader(conf.Destination)
	if err != nil {
		t.Fatalf("failed to open report archive: %v", err)
	}
	defer zr.Close()

	content := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open archive entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("failed to read archive entry %s: %v", f.Name, err)
		}
		content[f.Name] = data
	}

	if zr.File[0].Name != "MANIFEST" {
		t.Errorf("first archive entry = %q, want MANIFEST", zr.File[0].Name)
	}

	manifest := string(content["MANIFEST"])
	for _, name := range []string{"stylesheet.css", "theme.yaml", "assets"} {
		if !strings.Contains(manifest, name) {
			t.Errorf("MANIFEST is missing entry %q:\n%s", name, manifest)
		}
	}

	if got := string(content["stylesheet.css"]); got != ".card{color:red;}" {
		t.Errorf("stylesheet.css content = %q", got)
	}
	if got := string(content["theme.yaml"]); got != "name: test\n" {
		t.Errorf("theme.yaml content = %q", got)
	}
	if got := string(content["assets/font.woff2"]); got != "not really a font" {
		t.Errorf("assets/font.woff2 content = %q", got)
	}
}

func TestReportClose_RemovesCopiedDirs(t *testing.T) {
	tmpDir := t.TempDir()

	src := filepath.Join(tmpDir, "work")
	if err := os.MkdirAll(src, 0755); err != nil {
		t.Fatalf("failed to create source dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "debug.txt"), []byte("test"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	conf := &ReporterConfig{Destination: filepath.Join(tmpDir, "report.zip")}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("ReporterConfig.Prepare() error = %v", err)
	}

	if err := r.StoreCopy("workdir", src); err != nil {
		t.Fatalf("StoreCopy() error = %v", err)
	}

	copies := append([]string{}, r.tmpdirs...)
	if len(copies) == 0 {
		t.Fatal("StoreCopy did not record temporary location")
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Report.Close() error = %v", err)
	}

	// temporary copies should be removed
	for _, dir := range copies {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			os.RemoveAll(dir)
			t.Errorf("expected temporary copy %s to be removed, but it still exists", dir)
		}
	}

	// original must not be touched
	if _, err := os.Stat(filepath.Join(src, "debug.txt")); err != nil {
		t.Errorf("original file should not be removed, but got error: %v", err)
	}
}

func TestReport_StoreCollisions(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}

	r.Store("same", "/tmp/a")
	r.Store("same", "/tmp/a") // same path is fine

	t.Run("store different path panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("Store with the same name and different path should panic")
			}
		}()
		r.Store("same", "/tmp/b")
	})

	t.Run("store data twice panics", func(t *testing.T) {
		r.StoreData("data", []byte("x"))
		defer func() {
			if recover() == nil {
				t.Error("StoreData with the same name should panic")
			}
		}()
		r.StoreData("data", []byte("y"))
	})
}

func TestReport_StoreCopyMissingPath(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.StoreCopy("gone", filepath.Join(t.TempDir(), "does-not-exist")); err == nil {
		t.Error("StoreCopy of missing path should fail")
	}
}

func TestReport_NilSafety(t *testing.T) {
	var r *Report

	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
	if n := r.Name(); n != "" {
		t.Errorf("Name on nil report = %q, want empty", n)
	}
	r.Store("a", "b")
	r.StoreData("c", []byte("d"))
	if err := r.StoreCopy("e", "f"); err != nil {
		t.Errorf("StoreCopy on nil report should not error, got: %v", err)
	}
}

func TestReportClose_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}
