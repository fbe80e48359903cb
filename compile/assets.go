package compile

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"stylec/css"
	"stylec/state"
)

// AssetsDir is the directory assets are placed under inside a bundle.
const AssetsDir = "assets"

// Asset is one external file referenced by the stylesheet, loaded and ready
// to be placed into a bundle.
type Asset struct {
	OriginalURL string
	Filename    string // bundle-relative path, e.g. "assets/title.woff2"
	MimeType    string
	Data        []byte
}

// resolveAssets walks every url() reference in the assembled stylesheet and
// loads the files they point to. References are resolved against the
// configured asset base path or, when not set, the theme file directory.
// For bundle output references are rewritten to bundle-relative names.
//
// With asset validation on, missing files and font payloads that do not
// match their declared type accumulate into the returned error. Without it
// problems are logged and the reference is left as authored.
func resolveAssets(d *Document, sheet *css.Stylesheet, srcDir string, env *state.LocalEnv) ([]Asset, error) {
	log := env.Log

	basePath := env.Cfg.Document.Assets.BasePath
	if basePath == "" {
		basePath = srcDir
	}
	// os.DirFS refuses absolute paths and ".." escapes, so a hostile
	// url('../../etc/passwd') reference cannot leave the asset root.
	baseFS := os.DirFS(basePath)

	validate := env.Cfg.Document.Assets.Validate
	rewrite := d.Format.Bundled()

	var (
		assets []Asset
		errs   error
		seen   = make(map[string]string) // original URL -> rewritten URL
		used   = make(map[string]bool)   // bundle filenames taken so far
	)

	sheet.RewriteURLs(func(orig string) string {
		if orig == "" || strings.HasPrefix(orig, "data:") {
			return orig
		}
		if strings.HasPrefix(orig, "http://") || strings.HasPrefix(orig, "https://") {
			log.Warn("Remote URL in stylesheet cannot be bundled", zap.String("url", orig))
			return orig
		}
		if final, ok := seen[orig]; ok {
			return final
		}

		resourcePath := path.Clean(filepath.ToSlash(orig))
		data, err := fs.ReadFile(baseFS, resourcePath)
		if err != nil {
			log.Warn("Unable to load stylesheet asset",
				zap.String("url", orig), zap.String("basePath", basePath), zap.Error(err))
			if validate {
				errs = multierr.Append(errs, fmt.Errorf("asset %q: %w", orig, err))
			}
			seen[orig] = orig
			return orig
		}

		// Prefer extension-based detection for fonts, sniff the rest
		mimeType := ""
		if ext := filepath.Ext(orig); ext != "" {
			mimeType = extToMimeType(ext)
		}
		if mimeType == "" {
			mimeType = http.DetectContentType(data)
		}

		if validate && !validLoadedAsset(mimeType, data) {
			log.Warn("Stylesheet asset does not match its declared type",
				zap.String("url", orig), zap.String("mime", mimeType))
			errs = multierr.Append(errs, fmt.Errorf("asset %q does not look like %s", orig, mimeType))
			seen[orig] = orig
			return orig
		}

		name := uniqueAssetName(orig, mimeType, used)
		assets = append(assets, Asset{
			OriginalURL: orig,
			Filename:    name,
			MimeType:    mimeType,
			Data:        data,
		})

		final := orig
		if rewrite {
			final = name
		}
		seen[orig] = final

		log.Debug("Loaded stylesheet asset",
			zap.String("url", orig), zap.String("filename", name),
			zap.String("mime", mimeType), zap.Int("bytes", len(data)))

		return final
	})

	return assets, errs
}

// uniqueAssetName derives the bundle filename for a referenced file, keeping
// names unique when different paths share a base name.
func uniqueAssetName(url, mimeType string, used map[string]bool) string {
	base := path.Base(filepath.ToSlash(url))
	if base == "" || base == "." || base == "/" {
		base = "asset"
	}
	ext := path.Ext(base)
	if ext == "" {
		ext = mimeToExtension(mimeType)
		base += ext
	}

	name := path.Join(AssetsDir, base)
	if !used[name] {
		used[name] = true
		return name
	}

	stem := strings.TrimSuffix(base, ext)
	for i := 1; ; i++ {
		name = path.Join(AssetsDir, fmt.Sprintf("%s-%d%s", stem, i, ext))
		if !used[name] {
			used[name] = true
			return name
		}
	}
}

// validLoadedAsset sanity checks loaded data against the declared type.
func validLoadedAsset(mimeType string, data []byte) bool {
	switch mimeType {
	case "font/woff":
		return filetype.Is(data, "woff")
	case "font/woff2":
		return filetype.Is(data, "woff2")
	case "font/ttf":
		return filetype.Is(data, "ttf")
	case "font/otf":
		return filetype.Is(data, "otf")
	case "image/png":
		return filetype.Is(data, "png")
	case "image/jpeg":
		return filetype.Is(data, "jpg")
	case "image/gif":
		return filetype.Is(data, "gif")
	case "image/webp":
		return filetype.Is(data, "webp")
	}
	return true
}

// mimeToExtension returns file extension for common MIME types
func mimeToExtension(mimeType string) string {
	switch mimeType {
	case "font/woff", "application/font-woff":
		return ".woff"
	case "font/woff2", "application/font-woff2":
		return ".woff2"
	case "font/ttf", "application/x-font-ttf", "application/font-sfnt":
		return ".ttf"
	case "font/otf", "application/x-font-otf":
		return ".otf"
	case "application/vnd.ms-fontobject":
		return ".eot"
	case "image/svg+xml":
		return ".svg"
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}

// extToMimeType returns MIME type for common stylesheet asset extensions
func extToMimeType(ext string) string {
	switch strings.ToLower(ext) {
	case ".woff":
		return "font/woff"
	case ".woff2":
		return "font/woff2"
	case ".ttf":
		return "font/ttf"
	case ".otf":
		return "font/otf"
	case ".eot":
		return "application/vnd.ms-fontobject"
	case ".svg":
		return "image/svg+xml"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return ""
	}
}
