package model

import (
	"strings"

	"github.com/google/uuid"
)

// Source identifies where a research description came from.
type Source string

// Description sources.
const (
	SourceText  Source = "text"
	SourceFile  Source = "file"
	SourceURL   Source = "url"
	SourceStdin Source = "stdin"
	SourceBatch Source = "batch"
)

// Request is the inbound classification request.
type Request struct {
	ID          string `json:"id" yaml:"id"`
	Description string `json:"description" yaml:"description"`
	College     string `json:"college,omitempty" yaml:"college,omitempty"`
	Source      Source `json:"source,omitempty" yaml:"source,omitempty"`
	Origin      string `json:"origin,omitempty" yaml:"origin,omitempty"`
}

// NewRequest creates a request with a fresh identifier.
func NewRequest(description, college string, source Source) Request {
	return Request{
		ID:          uuid.New().String(),
		Description: description,
		College:     college,
		Source:      source,
	}
}

// EnsureID assigns an identifier when the request has none.
func (r *Request) EnsureID() {
	if strings.TrimSpace(r.ID) == "" {
		r.ID = uuid.New().String()
	}
}

// IsEmpty reports whether the description is blank after trimming.
func (r Request) IsEmpty() bool {
	return strings.TrimSpace(r.Description) == ""
}
