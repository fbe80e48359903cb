package compile

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/unicode"
)

// TestIsArchiveFile tests archive file detection
func TestIsArchiveFile(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("non-zip extension", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test.txt")
		if err := os.WriteFile(filePath, []byte("not a zip"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if got != false {
			t.Errorf("isArchiveFile() = %v, want false", got)
		}
	})

	t.Run("zip extension but invalid content", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test.zip")
		if err := os.WriteFile(filePath, []byte("not a real zip file"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if got != false {
			t.Errorf("isArchiveFile() = %v, want false", got)
		}
	})

	t.Run("valid zip file", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test2.zip")
		zipFile, err := os.Create(filePath)
		if err != nil {
			t.Fatalf("Failed to create zip file: %v", err)
		}
		w := zip.NewWriter(zipFile)
		f, err := w.Create("test.txt")
		if err != nil {
			t.Fatalf("Failed to create file in zip: %v", err)
		}
		f.Write(make([]byte, 300))
		w.Close()
		zipFile.Close()

		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if got != true {
			t.Errorf("isArchiveFile() = %v, want true", got)
		}
	})
}

// TestIsArchiveFile_NonExistent tests with non-existent file
func TestIsArchiveFile_NonExistent(t *testing.T) {
	_, err := isArchiveFile("/nonexistent/file.zip")
	if err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

// TestDetectUTF tests UTF encoding detection
func TestDetectUTF(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want srcEncoding
	}{
		{
			name: "UTF-8 BOM",
			buf:  []byte{0xEF, 0xBB, 0xBF, 0x00},
			want: encUTF8,
		},
		{
			name: "UTF-16 Big Endian BOM",
			buf:  []byte{0xFE, 0xFF, 0x00, 0x00},
			want: encUTF16BigEndian,
		},
		{
			name: "UTF-16 Little Endian BOM",
			buf:  []byte{0xFF, 0xFE, 0x01, 0x00}, // Different from UTF-32LE
			want: encUTF16LittleEndian,
		},
		{
			name: "UTF-32 Big Endian BOM",
			buf:  []byte{0x00, 0x00, 0xFE, 0xFF},
			want: encUTF32BigEndian,
		},
		{
			name: "UTF-32 Little Endian BOM",
			buf:  []byte{0xFF, 0xFE, 0x00, 0x00},
			want: encUTF32LittleEndian,
		},
		{
			name: "No BOM",
			buf:  []byte{0x00, 0x01, 0x02, 0x03},
			want: encUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectUTF(tt.buf)
			if got != tt.want {
				t.Errorf("detectUTF() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestHasThemeKeys tests top level theme key scanning
func TestHasThemeKeys(t *testing.T) {
	tests := []struct {
		name string
		buf  string
		want bool
	}{
		{
			name: "name key",
			buf:  "name: test\n",
			want: true,
		},
		{
			name: "components after comment and document marker",
			buf:  "# starter theme\n---\ncomponents:\n  body:\n    color: \"#333\"\n",
			want: true,
		},
		{
			name: "indented keys do not count",
			buf:  "something:\n  name: nested\n",
			want: false,
		},
		{
			name: "css content",
			buf:  "body { color: red }\n.quote { margin: 1em }\n",
			want: false,
		},
		{
			name: "partial last line with complete key",
			buf:  "# comment\nfonts:",
			want: true,
		},
		{
			name: "empty",
			buf:  "",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hasThemeKeys([]byte(tt.buf))
			if got != tt.want {
				t.Errorf("hasThemeKeys() = %v, want %v", got, tt.want)
			}
		})
	}
}

var themeTestContent = []byte(`name: detection sample
description: used by tests
components:
  body:
    color: "#333333"
    fontSize: 14
`)

// TestIsThemeFile tests theme document detection
func TestIsThemeFile(t *testing.T) {
	tmpDir := t.TempDir()

	utf16Content := func() []byte {
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes(themeTestContent)
		if err != nil {
			t.Fatalf("Failed to encode test content: %v", err)
		}
		return out
	}()

	tests := []struct {
		name      string
		filename  string
		content   []byte
		wantTheme bool
		wantEnc   srcEncoding
		wantErr   bool
	}{
		{
			name:      "valid theme file",
			filename:  "test.yaml",
			content:   themeTestContent,
			wantTheme: true,
			wantEnc:   encUnknown,
			wantErr:   false,
		},
		{
			name:      "theme with UTF-8 BOM",
			filename:  "test-utf8.yaml",
			content:   append([]byte{0xEF, 0xBB, 0xBF}, themeTestContent...),
			wantTheme: true,
			wantEnc:   encUTF8,
			wantErr:   false,
		},
		{
			name:      "theme with UTF-16 LE BOM",
			filename:  "test-utf16.yaml",
			content:   utf16Content,
			wantTheme: true,
			wantEnc:   encUTF16LittleEndian,
			wantErr:   false,
		},
		{
			name:      "non-theme extension",
			filename:  "test.txt",
			content:   themeTestContent,
			wantTheme: false,
			wantEnc:   encUnknown,
			wantErr:   false,
		},
		{
			name:      "theme extension but css content",
			filename:  "test.yaml",
			content:   []byte("body { color: red }"),
			wantTheme: false,
			wantEnc:   encUnknown,
			wantErr:   false,
		},
		{
			name:      "uppercase extension",
			filename:  "test.YAML",
			content:   themeTestContent,
			wantTheme: true,
			wantEnc:   encUnknown,
			wantErr:   false,
		},
		{
			name:      "yml extension",
			filename:  "test.yml",
			content:   themeTestContent,
			wantTheme: true,
			wantEnc:   encUnknown,
			wantErr:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filePath := filepath.Join(tmpDir, tt.filename)
			if err := os.WriteFile(filePath, tt.content, 0644); err != nil {
				t.Fatalf("Failed to create test file: %v", err)
			}

			gotTheme, gotEnc, err := isThemeFile(filePath)
			if (err != nil) != tt.wantErr {
				t.Errorf("isThemeFile() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if gotTheme != tt.wantTheme {
				t.Errorf("isThemeFile() theme = %v, want %v", gotTheme, tt.wantTheme)
			}
			if gotEnc != tt.wantEnc {
				t.Errorf("isThemeFile() encoding = %v, want %v", gotEnc, tt.wantEnc)
			}
		})
	}
}

// TestIsThemeFile_NonExistent tests with non-existent file
func TestIsThemeFile_NonExistent(t *testing.T) {
	_, _, err := isThemeFile("/nonexistent/file.yaml")
	if err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

// TestIsThemeInArchive tests theme detection in archive
func TestIsThemeInArchive(t *testing.T) {
	tmpDir := t.TempDir()
	zipPath := filepath.Join(tmpDir, "test.zip")

	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}

	w := zip.NewWriter(zipFile)

	add := func(name string, content []byte) {
		f, err := w.CreateHeader(&zip.FileHeader{
			Name:   name,
			Method: zip.Store,
		})
		if err != nil {
			t.Fatalf("Failed to create file in zip: %v", err)
		}
		if _, err := f.Write(content); err != nil {
			t.Fatalf("Failed to write to zip: %v", err)
		}
	}

	add("test.yaml", themeTestContent)
	add("test.txt", themeTestContent)
	add("test-bom.yaml", append([]byte{0xEF, 0xBB, 0xBF}, themeTestContent...))

	w.Close()
	zipFile.Close()

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("Failed to open zip: %v", err)
	}
	defer r.Close()

	tests := []struct {
		name      string
		fileIdx   int
		wantTheme bool
		wantEnc   srcEncoding
	}{
		{
			name:      "theme file in archive",
			fileIdx:   0,
			wantTheme: true,
			wantEnc:   encUnknown,
		},
		{
			name:      "non-theme file in archive",
			fileIdx:   1,
			wantTheme: false,
			wantEnc:   encUnknown,
		},
		{
			name:      "theme with BOM in archive",
			fileIdx:   2,
			wantTheme: true,
			wantEnc:   encUTF8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotTheme, gotEnc, err := isThemeInArchive(r.File[tt.fileIdx])
			if err != nil {
				t.Errorf("isThemeInArchive() error = %v", err)
				return
			}
			if gotTheme != tt.wantTheme {
				t.Errorf("isThemeInArchive() theme = %v, want %v", gotTheme, tt.wantTheme)
			}
			if gotEnc != tt.wantEnc {
				t.Errorf("isThemeInArchive() encoding = %v, want %v", gotEnc, tt.wantEnc)
			}
		})
	}
}

// TestSelectReader tests that every detected encoding decodes back to the
// original text
func TestSelectReader(t *testing.T) {
	tests := []struct {
		name string
		enc  srcEncoding
	}{
		{name: "unknown", enc: encUnknown},
		{name: "utf8", enc: encUTF8},
		{name: "utf16be", enc: encUTF16BigEndian},
		{name: "utf16le", enc: encUTF16LittleEndian},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := encodeFor(t, tt.enc, themeTestContent)

			r := selectReader(bytes.NewReader(content), tt.enc)
			var out bytes.Buffer
			if _, err := out.ReadFrom(r); err != nil {
				t.Fatalf("Failed to read: %v", err)
			}
			if !bytes.Equal(out.Bytes(), themeTestContent) {
				t.Errorf("selectReader() decoded % x, want % x", out.Bytes(), themeTestContent)
			}
		})
	}
}

func encodeFor(t *testing.T, enc srcEncoding, data []byte) []byte {
	t.Helper()

	var err error
	switch enc {
	case encUnknown:
	case encUTF8:
		data = append([]byte{0xEF, 0xBB, 0xBF}, data...)
	case encUTF16BigEndian:
		data, err = unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().Bytes(data)
	case encUTF16LittleEndian:
		data, err = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes(data)
	}
	if err != nil {
		t.Fatalf("Failed to encode test content: %v", err)
	}
	return data
}

// TestSelectReader_Panic tests that invalid encoding causes panic
func TestSelectReader_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for invalid encoding, but didn't panic")
		}
	}()

	r := bytes.NewReader([]byte("test"))
	selectReader(r, srcEncoding(999))
}
