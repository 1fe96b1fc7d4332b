package drivekit

import (
	"mime"
	"net/http"
	"path"
	"strings"
)

// Common MIME types
const (
	MIMETypeTextPlain       = "text/plain"
	MIMETypeTextHTML        = "text/html"
	MIMETypeTextCSV         = "text/csv"
	MIMETypeTextMarkdown    = "text/markdown"
	MIMETypeApplicationJSON = "application/json"
	MIMETypeApplicationXML  = "application/xml"
	MIMETypeApplicationPDF  = "application/pdf"
	MIMETypeApplicationZip  = "application/zip"
	MIMETypeImageJPEG       = "image/jpeg"
	MIMETypeImagePNG        = "image/png"
	MIMETypeImageGIF        = "image/gif"
	MIMETypeImageSVG        = "image/svg+xml"
	MIMETypeOctetStream     = "application/octet-stream"
)

// Extensions whose type differs between platform mime tables are pinned here.
var extensionToMIME = map[string]string{
	".txt":  MIMETypeTextPlain,
	".log":  MIMETypeTextPlain,
	".html": MIMETypeTextHTML,
	".htm":  MIMETypeTextHTML,
	".csv":  MIMETypeTextCSV,
	".md":   MIMETypeTextMarkdown,
	".json": MIMETypeApplicationJSON,
	".xml":  MIMETypeApplicationXML,
	".pdf":  MIMETypeApplicationPDF,
	".zip":  MIMETypeApplicationZip,
	".jpg":  MIMETypeImageJPEG,
	".jpeg": MIMETypeImageJPEG,
	".png":  MIMETypeImagePNG,
	".gif":  MIMETypeImageGIF,
	".svg":  MIMETypeImageSVG,
	".gz":   "application/gzip",
	".tar":  "application/x-tar",
	".zst":  "application/zstd",
}

// ContentTypeByName guesses the content type of an item from its name and,
// failing that, from its first bytes. Parameters such as charset are dropped,
// so the result compares equal to a bare mime tag.
func ContentTypeByName(name string, data []byte) string {
	ext := strings.ToLower(path.Ext(name))
	if ct, ok := extensionToMIME[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return baseType(ct)
	}
	if len(data) > 0 {
		return baseType(http.DetectContentType(data))
	}
	return MIMETypeOctetStream
}

// ExtensionForContentType returns a file extension for contentType, ".bin"
// when none is known.
func ExtensionForContentType(contentType string) string {
	contentType = baseType(contentType)
	for ext, ct := range extensionToMIME {
		if ct == contentType && ext != ".htm" && ext != ".jpeg" && ext != ".log" {
			return ext
		}
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

func baseType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return strings.TrimSpace(contentType)
}
