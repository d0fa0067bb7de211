// Package id centralizes identifier generation.
//
// Every entity gets a type prefix (doc_, qt_, att_, ver_, sbx_, ref_) so
// ids stay readable in logs and a misrouted id is obvious at a glance.
package id

import (
	"strings"

	"github.com/google/uuid"
)

const (
	DocumentPrefix   = "doc"
	QuotePrefix      = "qt"
	AttachmentPrefix = "att"
	VersionPrefix    = "ver"
	SandboxPrefix    = "sbx"
	RefEditPrefix    = "ref"
)

// New generates a prefixed identifier
func New(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewDocument generates a document id
func NewDocument() string { return New(DocumentPrefix) }

// NewQuote generates a quote id
func NewQuote() string { return New(QuotePrefix) }

// NewAttachment generates an attachment id
func NewAttachment() string { return New(AttachmentPrefix) }

// NewVersion generates a version snapshot id
func NewVersion() string { return New(VersionPrefix) }

// NewSandbox generates a sandbox session id
func NewSandbox() string { return New(SandboxPrefix) }

// NewRefEdit generates a reference edit session id
func NewRefEdit() string { return New(RefEditPrefix) }

// HasPrefix reports whether the id carries the given type prefix
func HasPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"_")
}
