package notes

import "strings"

const (
	maxTitleLength   = 200
	maxContentLength = 10000
)

func ValidateNote(title, content string) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if len(title) > maxTitleLength {
		return &ValidationError{Field: "title", Reason: "exceeds maximum length"}
	}
	if strings.TrimSpace(content) == "" {
		return &ValidationError{Field: "content", Reason: "is required"}
	}
	if len(content) > maxContentLength {
		return &ValidationError{Field: "content", Reason: "exceeds maximum length"}
	}
	return nil
}
