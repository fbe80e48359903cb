package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func createBundle(t *testing.T, entries []struct{ name, content string }) string {
	t.Helper()

	zipPath := filepath.Join(t.TempDir(), "themes.zip")
	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}

	w := zip.NewWriter(zipFile)
	for _, e := range entries {
		fw, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("Failed to create entry %s: %v", e.name, err)
		}
		if _, err := fw.Write([]byte(e.content)); err != nil {
			t.Fatalf("Failed to write entry %s: %v", e.name, err)
		}
	}
	w.Close()
	zipFile.Close()
	return zipPath
}

func TestWalk(t *testing.T) {
	zipPath := createBundle(t, []struct{ name, content string }{
		{"themes/dark.yaml", "name: Dark"},
		{"themes/light.yaml", "name: Light"},
		{"fonts/inter.woff2", "binary"},
		{"fonts/mono.woff2", "binary"},
		{"README.txt", "bundle readme"},
	})

	t.Run("walk with themes prefix", func(t *testing.T) {
		var visited []string
		err := Walk(zipPath, "themes/", func(archive string, file *zip.File) error {
			if archive != zipPath {
				t.Errorf("archive = %s, want %s", archive, zipPath)
			}
			visited = append(visited, file.Name)
			return nil
		})

		if err != nil {
			t.Errorf("Walk() error = %v", err)
		}

		if len(visited) != 2 {
			t.Errorf("visited %d files, want 2", len(visited))
		}

		expected := map[string]bool{
			"themes/dark.yaml":  true,
			"themes/light.yaml": true,
		}
		for _, name := range visited {
			if !expected[name] {
				t.Errorf("unexpected file visited: %s", name)
			}
		}
	})

	t.Run("walk with fonts prefix", func(t *testing.T) {
		var visited []string
		err := Walk(zipPath, "fonts/", func(archive string, file *zip.File) error {
			visited = append(visited, file.Name)
			return nil
		})

		if err != nil {
			t.Errorf("Walk() error = %v", err)
		}

		if len(visited) != 2 {
			t.Errorf("visited %d files, want 2", len(visited))
		}
	})

	t.Run("walk with no matching prefix", func(t *testing.T) {
		var visited []string
		err := Walk(zipPath, "nonexistent/", func(archive string, file *zip.File) error {
			visited = append(visited, file.Name)
			return nil
		})

		if err != nil {
			t.Errorf("Walk() error = %v", err)
		}

		if len(visited) != 0 {
			t.Errorf("visited %d files, want 0", len(visited))
		}
	})

	t.Run("walk with empty prefix", func(t *testing.T) {
		var visited []string
		err := Walk(zipPath, "", func(archive string, file *zip.File) error {
			visited = append(visited, file.Name)
			return nil
		})

		if err != nil {
			t.Errorf("Walk() error = %v", err)
		}

		if len(visited) != 5 {
			t.Errorf("visited %d files, want 5", len(visited))
		}
	})

	t.Run("walkFn returns error", func(t *testing.T) {
		expectedErr := errors.New("test error")
		err := Walk(zipPath, "themes/", func(archive string, file *zip.File) error {
			return expectedErr
		})

		if err != expectedErr {
			t.Errorf("Walk() error = %v, want %v", err, expectedErr)
		}
	})
}

func TestWalkExt(t *testing.T) {
	zipPath := createBundle(t, []struct{ name, content string }{
		{"dark.yaml", "name: Dark"},
		{"nested/light.YML", "name: Light"},
		{"fonts/inter.woff2", "binary"},
		{"notes.txt", "text"},
	})

	t.Run("yaml documents anywhere in the tree", func(t *testing.T) {
		var visited []string
		err := WalkExt(zipPath, []string{".yaml", ".yml"}, func(archive string, file *zip.File) error {
			visited = append(visited, file.Name)
			return nil
		})

		if err != nil {
			t.Errorf("WalkExt() error = %v", err)
		}

		if len(visited) != 2 {
			t.Fatalf("visited %d files, want 2: %v", len(visited), visited)
		}

		expected := map[string]bool{
			"dark.yaml":        true,
			"nested/light.YML": true,
		}
		for _, name := range visited {
			if !expected[name] {
				t.Errorf("unexpected file visited: %s", name)
			}
		}
	})

	t.Run("no matching extensions", func(t *testing.T) {
		var visited int
		err := WalkExt(zipPath, []string{".css"}, func(archive string, file *zip.File) error {
			visited++
			return nil
		})

		if err != nil {
			t.Errorf("WalkExt() error = %v", err)
		}
		if visited != 0 {
			t.Errorf("visited %d files, want 0", visited)
		}
	})

	t.Run("walkFn error stops the walk", func(t *testing.T) {
		stopErr := errors.New("stop")
		err := WalkExt(zipPath, []string{".yaml", ".yml"}, func(archive string, file *zip.File) error {
			return stopErr
		})
		if err != stopErr {
			t.Errorf("WalkExt() error = %v, want %v", err, stopErr)
		}
	})
}

func TestWalk_InvalidArchive(t *testing.T) {
	t.Run("nonexistent file", func(t *testing.T) {
		err := Walk("/nonexistent/file.zip", "", func(archive string, file *zip.File) error {
			return nil
		})

		if err == nil {
			t.Error("Expected error for nonexistent file")
		}
	})

	t.Run("invalid zip file", func(t *testing.T) {
		tmpDir := t.TempDir()
		invalidZip := filepath.Join(tmpDir, "invalid.zip")

		if err := os.WriteFile(invalidZip, []byte("not a zip file"), 0644); err != nil {
			t.Fatalf("Failed to create invalid zip: %v", err)
		}

		err := Walk(invalidZip, "", func(archive string, file *zip.File) error {
			return nil
		})

		if err == nil {
			t.Error("Expected error for invalid zip file")
		}
	})
}

func TestWalk_WithDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	zipPath := filepath.Join(tmpDir, "themes.zip")

	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}

	w := zip.NewWriter(zipFile)

	// Directory entries as created by most zip utilities.
	dirHeader := &zip.FileHeader{
		Name: "themes/",
	}
	dirHeader.SetMode(os.ModeDir | 0755)
	if _, err := w.CreateHeader(dirHeader); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	fw, err := w.Create("themes/dark.yaml")
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	fw.Write([]byte("name: Dark"))

	w.Close()
	zipFile.Close()

	var visited []string
	err = Walk(zipPath, "themes/", func(archive string, file *zip.File) error {
		visited = append(visited, file.Name)
		return nil
	})

	if err != nil {
		t.Errorf("Walk() error = %v", err)
	}

	if len(visited) != 1 {
		t.Errorf("visited %d entries, want 1 (file only, not directory)", len(visited))
	}

	if len(visited) > 0 && visited[0] != "themes/dark.yaml" {
		t.Errorf("visited %s, want themes/dark.yaml", visited[0])
	}
}

func TestWalk_UnsafeEntries(t *testing.T) {
	tests := []struct {
		name  string
		entry string
	}{
		{"path traversal", "../escape.yaml"},
		{"nested traversal", "themes/../../escape.yaml"},
		{"absolute path", "/etc/escape.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zipPath := filepath.Join(t.TempDir(), "evil.zip")
			zipFile, err := os.Create(zipPath)
			if err != nil {
				t.Fatalf("Failed to create zip file: %v", err)
			}

			w := zip.NewWriter(zipFile)
			// CreateRaw-style naming tricks are not needed, Create accepts
			// the name verbatim.
			fw, err := w.CreateHeader(&zip.FileHeader{Name: tt.entry})
			if err != nil {
				t.Fatalf("Failed to create entry: %v", err)
			}
			fw.Write([]byte("payload"))
			w.Close()
			zipFile.Close()

			err = Walk(zipPath, "", func(archive string, file *zip.File) error {
				t.Errorf("walkFn called for unsafe entry %q", file.Name)
				return nil
			})
			if err == nil {
				t.Error("Expected error for unsafe entry")
			}
		})
	}
}

func TestWalk_EarlyTermination(t *testing.T) {
	entries := make([]struct{ name, content string }, 5)
	for i := range entries {
		entries[i].name = "themes/theme" + string(rune('0'+i)) + ".yaml"
		entries[i].content = "name: T"
	}
	zipPath := createBundle(t, entries)

	var visited int
	stopErr := errors.New("stop walking")
	err := Walk(zipPath, "themes/", func(archive string, file *zip.File) error {
		visited++
		if visited == 2 {
			return stopErr
		}
		return nil
	})

	if err != stopErr {
		t.Errorf("Walk() error = %v, want %v", err, stopErr)
	}

	if visited != 2 {
		t.Errorf("visited %d files, want 2 (early termination)", visited)
	}
}

func TestWalk_FileContent(t *testing.T) {
	content := []byte("name: Dark\ncomponents:\n  card:\n    color: white\n")
	zipPath := createBundle(t, []struct{ name, content string }{
		{"dark.yaml", string(content)},
	})

	err := Walk(zipPath, "", func(archive string, file *zip.File) error {
		rc, err := file.Open()
		if err != nil {
			return err
		}
		defer rc.Close()

		buf := new(bytes.Buffer)
		if _, err := buf.ReadFrom(rc); err != nil {
			return err
		}

		if !bytes.Equal(buf.Bytes(), content) {
			t.Errorf("content = %s, want %s", buf.Bytes(), content)
		}

		return nil
	})

	if err != nil {
		t.Errorf("Walk() error = %v", err)
	}
}
