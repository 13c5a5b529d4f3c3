package media

import (
	"net/url"
	"strings"
)

// ValidateImageURL checks that raw is an absolute http or https URL.
func ValidateImageURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", &ValidationError{Field: "src", Message: "image URL is required"}
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", &ValidationError{Field: "src", Value: raw, Message: "malformed URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &ValidationError{Field: "src", Value: raw, Message: "must use http or https"}
	}
	if u.Host == "" {
		return "", &ValidationError{Field: "src", Value: raw, Message: "must be absolute"}
	}
	return u.String(), nil
}
