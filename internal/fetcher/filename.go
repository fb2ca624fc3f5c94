package fetcher

import (
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

const (
	placeholderName     = "download"
	placeholderTitle    = "video"
	maxTitleRunes       = 60
	maxFilenameRunes    = 120
	hostileFilenameRune = '_'
)

// looseFilename reads filename= from headers mime rejects, e.g. unquoted names with spaces.
var looseFilename = regexp.MustCompile(`(?i)filename\*?\s*=\s*["']?(?:UTF-8'[^']*')?([^"';]+)`)

// knownExtensions lists the accepted extensions per media type, preferred first.
// Other types fall back to the system mime table.
var knownExtensions = map[string][]string{
	"video/mp4":            {".mp4", ".m4v"},
	"video/webm":           {".webm"},
	"video/x-matroska":     {".mkv"},
	"video/quicktime":      {".mov"},
	"video/x-msvideo":      {".avi"},
	"audio/mpeg":           {".mp3"},
	"audio/mp4":            {".m4a"},
	"audio/ogg":            {".ogg", ".oga", ".opus"},
	"audio/webm":           {".weba", ".webm"},
	"audio/wav":            {".wav"},
	"audio/flac":           {".flac"},
	"image/jpeg":           {".jpg", ".jpeg"},
	"image/png":            {".png"},
	"image/gif":            {".gif"},
	"image/webp":           {".webp"},
	"application/pdf":      {".pdf"},
	"application/zip":      {".zip"},
	"application/gzip":     {".gz", ".tgz"},
	"application/x-tar":    {".tar"},
	"application/json":     {".json"},
	"application/epub+zip": {".epub"},
	"text/plain":           {".txt", ".log", ".md"},
	"text/html":            {".html", ".htm"},
	"text/csv":             {".csv"},
}

// opaqueTypes say nothing about the payload and never change a name.
var opaqueTypes = map[string]bool{
	"":                           true,
	"application/octet-stream":   true,
	"binary/octet-stream":        true,
	"application/download":       true,
	"application/force-download": true,
}

// DirectFilename derives the name of a directly fetched file. The chain is
// Content-Disposition, then the last URL path segment, then a placeholder;
// the extension is then reconciled with contentType.
func DirectFilename(contentDisposition, rawURL, contentType string) string {
	name := sanitizeFilename(nameFromDisposition(contentDisposition))
	if name == "" {
		name = sanitizeFilename(nameFromURL(rawURL))
	}
	if name == "" {
		name = placeholderName
	}
	return reconcileExtension(name, contentType)
}

// ExtractorFilename builds the name of an extractor-produced file from the
// media title and the extension the file actually has.
func ExtractorFilename(title, ext string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	name := strings.Join(strings.Fields(b.String()), " ")
	if runes := []rune(name); len(runes) > maxTitleRunes {
		name = strings.TrimSpace(string(runes[:maxTitleRunes]))
	}
	if name == "" {
		name = placeholderTitle
	}
	return name + strings.ToLower(ext)
}

func nameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err == nil {
		// ParseMediaType folds RFC 2231 filename* into filename.
		return params["filename"]
	}
	m := looseFilename.FindStringSubmatch(header)
	if m == nil {
		return ""
	}
	name := strings.TrimSpace(m[1])
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return name
}

func nameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if u.Path == "" || strings.HasSuffix(u.Path, "/") {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." {
		return ""
	}
	return base
}

func sanitizeFilename(name string) string {
	// drop any directory part a server may have sent
	name = name[strings.LastIndexAny(name, `/\`)+1:]

	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsControl(r), strings.ContainsRune(`<>:"|?*`, r):
			b.WriteRune(hostileFilenameRune)
		default:
			b.WriteRune(r)
		}
	}
	cleaned := strings.Trim(strings.TrimSpace(b.String()), ".")
	if strings.Trim(cleaned, string(hostileFilenameRune)) == "" {
		return ""
	}
	if runes := []rune(cleaned); len(runes) > maxFilenameRunes {
		ext := filepath.Ext(cleaned)
		keep := maxFilenameRunes - len([]rune(ext))
		if keep <= 0 {
			return string(runes[:maxFilenameRunes])
		}
		cleaned = string([]rune(strings.TrimSuffix(cleaned, ext))[:keep]) + ext
	}
	return cleaned
}

// reconcileExtension appends or replaces the extension only when the name
// lacks one or the declared type disagrees with it.
func reconcileExtension(name, contentType string) string {
	mediaType := ""
	if contentType != "" {
		if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
			mediaType = strings.ToLower(parsed)
		}
	}
	if opaqueTypes[mediaType] {
		return name
	}

	allowed := extensionsFor(mediaType)
	if len(allowed) == 0 {
		return name
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return name + allowed[0]
	}
	for _, a := range allowed {
		if ext == a {
			return name
		}
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + allowed[0]
}

func extensionsFor(mediaType string) []string {
	if exts, ok := knownExtensions[mediaType]; ok {
		return exts
	}
	exts, err := mime.ExtensionsByType(mediaType)
	if err != nil {
		return nil
	}
	return exts
}
