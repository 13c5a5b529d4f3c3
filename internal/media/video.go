// Package media validates media sources and stores uploaded files.
package media

import (
	"regexp"
	"strings"
)

// EmbedBase is the privacy-enhanced embed endpoint videos are exported to.
const EmbedBase = "https://www.youtube-nocookie.com/embed/"

var (
	videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

	// Recognized forms:
	//   youtube.com/watch?v=ID (v may follow other query parameters)
	//   youtube.com/{embed,shorts,v,live}/ID
	//   youtube-nocookie.com/embed/ID
	//   youtu.be/ID
	videoURLPattern = regexp.MustCompile(
		`^(?:https?://)?(?:(?:www|m|music)\.)?` +
			`(?:youtube\.com/(?:watch\?(?:[^#]*&)?v=|(?:embed|shorts|v|live)/)|youtube-nocookie\.com/embed/|youtu\.be/)` +
			`([A-Za-z0-9_-]{11})(?:[?&#/].*)?$`)
)

// ValidVideoID reports whether id has the shape of a provider video ID.
func ValidVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

// ParseVideoURL extracts the video ID from a recognized video URL.
func ParseVideoURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", &ValidationError{Field: "url", Value: raw, Message: "video URL is required"}
	}
	m := videoURLPattern.FindStringSubmatch(s)
	if m == nil {
		return "", &ValidationError{Field: "url", Value: raw, Message: "not a recognized YouTube URL"}
	}
	return m[1], nil
}

// EmbedURL returns the embed frame address for a video ID.
func EmbedURL(id string) string {
	return EmbedBase + id
}

// VideoIDFromEmbed extracts the ID from an exported embed address.
// It accepts any URL ParseVideoURL does.
func VideoIDFromEmbed(src string) (string, bool) {
	id, err := ParseVideoURL(src)
	return id, err == nil
}
