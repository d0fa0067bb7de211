// Package refs hydrates and persists cross-entity reference lists.
package refs

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/tabnote/tabnote/internal/domain/attachment"
	"github.com/tabnote/tabnote/internal/domain/document"
	"github.com/tabnote/tabnote/internal/domain/quote"
	"github.com/tabnote/tabnote/internal/shared/types"
	"github.com/tabnote/tabnote/internal/shared/utils"
)

// Owner kinds a reference collection can hang off.
const (
	OwnerDocuments = "documents"
	OwnerQuotes    = "quotes"
)

// quoteTitleRunes caps the excerpt used as a quote's display title.
const quoteTitleRunes = 80

// Service resolves reference ids to display summaries and writes
// ordered lists back to their owners. It backs both the reference
// endpoints and the edit-session state machine.
type Service struct {
	documents   *document.Store
	quotes      *quote.Store
	attachments *attachment.Store
}

// NewService creates a reference service over the entity stores.
func NewService(documents *document.Store, quotes *quote.Store, attachments *attachment.Store) *Service {
	return &Service{
		documents:   documents,
		quotes:      quotes,
		attachments: attachments,
	}
}

// Hydrate maps ids to display summaries, preserving order. Dangling
// ids are reported with Missing set, never silently dropped: the
// owner keeps its list intact and the UI shows what broke.
func (s *Service) Hydrate(_ context.Context, kind types.RefKind, ids []string) ([]types.RefSummary, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("refs: invalid reference kind %q", kind)
	}

	out := make([]types.RefSummary, 0, len(ids))
	for _, refID := range ids {
		out = append(out, s.summarize(kind, refID))
	}
	return out, nil
}

func (s *Service) summarize(kind types.RefKind, refID string) types.RefSummary {
	switch kind {
	case types.RefDocuments:
		if doc, ok := s.documents.Get(refID); ok {
			return types.RefSummary{ID: refID, Title: doc.Title}
		}
	case types.RefQuotes:
		if q, ok := s.quotes.Get(refID); ok {
			return types.RefSummary{ID: refID, Title: excerpt(q.Content)}
		}
	case types.RefAttachments:
		if att, ok := s.attachments.Get(refID); ok {
			return types.RefSummary{ID: refID, Title: att.Name}
		}
	}
	return types.RefSummary{ID: refID, Missing: true}
}

// Persist replaces one owner's ordered reference list in a single
// write. The write is last-writer-wins; concurrent editors of the
// same collection race and the later save is the final order.
func (s *Service) Persist(_ context.Context, ownerKind, ownerID string, kind types.RefKind, ids []string) error {
	if err := utils.ValidateIDs(ids, "ids"); err != nil {
		return err
	}

	switch ownerKind {
	case OwnerDocuments:
		return s.documents.SetReferences(ownerID, kind, ids)
	case OwnerQuotes:
		return s.quotes.SetReferences(ownerID, kind, ids)
	default:
		return fmt.Errorf("refs: unknown owner kind %q", ownerKind)
	}
}

// OwnerIDs reads the current persisted list for one owner collection.
func (s *Service) OwnerIDs(ownerKind, ownerID string, kind types.RefKind) ([]string, error) {
	switch ownerKind {
	case OwnerDocuments:
		return s.documents.References(ownerID, kind)
	case OwnerQuotes:
		return s.quotes.References(ownerID, kind)
	default:
		return nil, fmt.Errorf("refs: unknown owner kind %q", ownerKind)
	}
}

func excerpt(content string) string {
	if utf8.RuneCountInString(content) <= quoteTitleRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:quoteTitleRunes]) + "…"
}
