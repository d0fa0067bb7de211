package types

import "time"

// Format identifies how document content is stored
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// RefKind identifies a reference list on an entity
type RefKind string

const (
	RefDocuments   RefKind = "documents"
	RefQuotes      RefKind = "quotes"
	RefAttachments RefKind = "attachments"
)

// Valid reports whether the kind names a known reference list
func (k RefKind) Valid() bool {
	switch k {
	case RefDocuments, RefQuotes, RefAttachments:
		return true
	}
	return false
}

// ReferenceSet holds the ordered cross-entity reference lists
type ReferenceSet struct {
	Documents   []string `json:"documents"`
	Quotes      []string `json:"quotes"`
	Attachments []string `json:"attachments"`
}

// Get returns the ordered id list for a kind
func (r *ReferenceSet) Get(kind RefKind) []string {
	switch kind {
	case RefDocuments:
		return r.Documents
	case RefQuotes:
		return r.Quotes
	case RefAttachments:
		return r.Attachments
	}
	return nil
}

// Set replaces the ordered id list for a kind
func (r *ReferenceSet) Set(kind RefKind, ids []string) {
	switch kind {
	case RefDocuments:
		r.Documents = ids
	case RefQuotes:
		r.Quotes = ids
	case RefAttachments:
		r.Attachments = ids
	}
}

// Document is a user note with rich content
type Document struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Format    Format       `json:"format"`
	Refs      ReferenceSet `json:"refs"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Quote is a favorited excerpt, optionally tied to a source document
type Quote struct {
	ID          string       `json:"id"`
	Content     string       `json:"content"`
	SourceDocID string       `json:"source_doc_id,omitempty"`
	Refs        ReferenceSet `json:"refs"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Attachment holds file metadata; the blob lives beside it on disk
type Attachment struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Charset     string    `json:"charset,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Version is a point-in-time snapshot of a document
type Version struct {
	ID        string    `json:"id"`
	DocID     string    `json:"doc_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// RefSummary is a hydrated reference-list entry for display
type RefSummary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Missing bool   `json:"missing,omitempty"`
}
