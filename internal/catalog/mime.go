package catalog

import (
	"strings"

	"github.com/slok/runview/internal/model"
)

// ExtFromMime returns a file extension for a mime type.
func ExtFromMime(mime string) string {
	parts := strings.Split(mime, "/")
	t := parts[len(parts)-1]
	switch {
	case t == "":
		return "txt"
	case t == "json":
		return "json"
	case strings.Contains(t, "javascript"):
		return "js"
	case strings.Contains(t, "typescript"):
		return "ts"
	case strings.Contains(t, "html"):
		return "html"
	case strings.Contains(t, "css"):
		return "css"
	case strings.Contains(t, "markdown"):
		return "md"
	}
	return "txt"
}

// MimeFromPath guesses the mime type of a live file from its path.
func MimeFromPath(path string) string {
	n := strings.ToLower(path)
	switch {
	case strings.HasSuffix(n, ".json"):
		return "application/json"
	case strings.HasSuffix(n, ".html"):
		return "text/html"
	case strings.HasSuffix(n, ".css"):
		return "text/css"
	case strings.HasSuffix(n, ".md"):
		return "text/markdown"
	}
	return "text/plain"
}

// DownloadName returns the local file name for a downloaded artifact.
func DownloadName(a model.Artifact) string {
	if a.Name != "" {
		return a.Name
	}
	mime := a.MimeType
	if mime == "" {
		mime = "text/plain"
	}
	return "artifact." + ExtFromMime(mime)
}
