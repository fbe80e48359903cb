package compile

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

// headSize is how much of a file gets read for type and encoding sniffing.
const headSize = 512

// themeType makes filetype aware of stylec theme documents. YAML has no
// magic bytes, so the matcher looks for theme document keys at the top level.
var themeType = filetype.NewType("yaml", "text/x-stylec-theme")

func init() {
	filetype.AddMatcher(themeType, func(buf []byte) bool {
		return hasThemeKeys(decodeHead(buf, detectUTF(buf)))
	})
}

var themeTopKeys = [][]byte{
	[]byte("name:"),
	[]byte("components:"),
	[]byte("palette:"),
	[]byte("fonts:"),
	[]byte("breakpoints:"),
	[]byte("id:"),
	[]byte("description:"),
}

// hasThemeKeys reports whether any known theme key starts a line at the top
// level of the buffer. The buffer may end mid-line, partial last lines only
// match when a key fits completely.
func hasThemeKeys(buf []byte) bool {
	for _, line := range bytes.Split(buf, []byte("\n")) {
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) == 0 || line[0] == '#' || line[0] == ' ' || line[0] == '\t' {
			continue
		}
		if bytes.Equal(line, []byte("---")) {
			continue
		}
		for _, key := range themeTopKeys {
			if bytes.HasPrefix(line, key) {
				return true
			}
		}
	}
	return false
}

func isUTF8BOM3(buf []byte) bool {
	return buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF
}

func isUTF16BigEndianBOM2(buf []byte) bool {
	return buf[0] == 0xFE && buf[1] == 0xFF
}

func isUTF16LittleEndianBOM2(buf []byte) bool {
	return buf[0] == 0xFF && buf[1] == 0xFE
}

func isUTF32BigEndianBOM4(buf []byte) bool {
	return buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0xFE && buf[3] == 0xFF
}

func isUTF32LittleEndianBOM4(buf []byte) bool {
	return buf[0] == 0xFF && buf[1] == 0xFE && buf[2] == 0x00 && buf[3] == 0x00
}

// detectUTF sniffs BOM at the beginning of the buffer. UTF-32 LE shares the
// first two bytes with UTF-16 LE so the longer BOM is checked first.
func detectUTF(buf []byte) srcEncoding {
	if len(buf) >= 3 && isUTF8BOM3(buf) {
		return encUTF8
	}
	if len(buf) >= 4 && isUTF32BigEndianBOM4(buf) {
		return encUTF32BigEndian
	}
	if len(buf) >= 4 && isUTF32LittleEndianBOM4(buf) {
		return encUTF32LittleEndian
	}
	if len(buf) >= 2 && isUTF16BigEndianBOM2(buf) {
		return encUTF16BigEndian
	}
	if len(buf) >= 2 && isUTF16LittleEndianBOM2(buf) {
		return encUTF16LittleEndian
	}
	return encUnknown
}

// selectReader wraps the reader so that the caller always sees UTF-8 without
// BOM. Encoding must come from detectUTF on the same source.
func selectReader(r io.Reader, enc srcEncoding) io.Reader {
	switch enc {
	case encUnknown:
		return r
	case encUTF8:
		return unicode.UTF8BOM.NewDecoder().Reader(r)
	case encUTF16BigEndian:
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Reader(r)
	case encUTF16LittleEndian:
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Reader(r)
	case encUTF32BigEndian:
		return utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM).NewDecoder().Reader(r)
	case encUTF32LittleEndian:
		return utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM).NewDecoder().Reader(r)
	default:
		// this should never happen
		panic("unsupported source encoding")
	}
}

// decodeHead converts a sniffing buffer to UTF-8 so content checks work on
// wide-encoded sources too. Best effort, on any problem the buffer is
// returned as is.
func decodeHead(buf []byte, enc srcEncoding) []byte {
	switch enc {
	case encUTF8:
		return buf[3:]
	case encUTF16BigEndian:
		return decodeWith(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder(), buf, 2)
	case encUTF16LittleEndian:
		return decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder(), buf, 2)
	case encUTF32BigEndian:
		return decodeWith(utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM).NewDecoder(), buf, 4)
	case encUTF32LittleEndian:
		return decodeWith(utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM).NewDecoder(), buf, 4)
	}
	return buf
}

func decodeWith(dec *encoding.Decoder, buf []byte, unit int) []byte {
	// head may be cut mid-rune
	buf = buf[:len(buf)/unit*unit]
	out, err := dec.Bytes(buf)
	if err != nil {
		return buf
	}
	return out
}

func readHead(r io.Reader) ([]byte, error) {
	head := make([]byte, headSize)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return head[:n], nil
}

// isArchiveFile checks if file has proper extension and looks like a zip
// archive inside.
func isArchiveFile(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head, err := readHead(f)
	if err != nil {
		return false, err
	}

	kind, _ := filetype.Match(head)
	return kind.Extension == "zip", nil
}

// themeExts lists the extensions theme documents are recognized by, both on
// disk and inside bundles.
var themeExts = []string{".yaml", ".yml"}

func hasThemeExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return slices.Contains(themeExts, ext)
}

func sniffTheme(r io.Reader) (bool, srcEncoding, error) {
	head, err := readHead(r)
	if err != nil {
		return false, encUnknown, err
	}

	enc := detectUTF(head)
	kind, _ := filetype.Match(head)
	return kind == themeType, enc, nil
}

// isThemeFile checks if file has proper extension and looks like a style
// theme document inside, returning detected source encoding.
func isThemeFile(path string) (bool, srcEncoding, error) {
	if !hasThemeExt(path) {
		return false, encUnknown, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, encUnknown, err
	}
	defer f.Close()

	return sniffTheme(f)
}

// isThemeInArchive is isThemeFile for a file inside zip archive.
func isThemeInArchive(f *zip.File) (bool, srcEncoding, error) {
	if !hasThemeExt(f.FileHeader.Name) {
		return false, encUnknown, nil
	}

	r, err := f.Open()
	if err != nil {
		return false, encUnknown, err
	}
	defer r.Close()

	return sniffTheme(r)
}
