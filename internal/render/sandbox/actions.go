package sandbox

import (
	"fmt"
	"html"

	"github.com/PuerkitoBio/goquery"
)

const (
	// MarkerTag is the custom element authors embed in rich content.
	MarkerTag = "x-tab-action"

	// processedAttr tags markers that a previous pass already handled.
	processedAttr = "data-xta-processed"

	// fallbackLabel is used when a marker carries no label at all.
	fallbackLabel = "查看详情"
)

// Action kinds recognized on markers.
const (
	ActionOpenDocument   = "open-document"
	ActionOpenQuote      = "open-quote"
	ActionOpenAttachment = "open-attachment"
)

// idAttrs maps each action kind to the attribute carrying its target id.
var idAttrs = map[string]string{
	ActionOpenDocument:   "data-doc-id",
	ActionOpenQuote:      "data-quote-id",
	ActionOpenAttachment: "data-attachment-id",
}

// Marker is one recognized action marker found in content.
type Marker struct {
	Action   string
	TargetID string
	Label    string
	Variant  string
}

// ProcessMarkers converts unprocessed x-tab-action elements into
// buttons carrying the marker data as data attributes. The in-frame
// script attaches the click handlers; this pass only shapes the tree.
//
// The pass is idempotent: elements tagged processed are skipped, so
// re-running it over mutated content never duplicates buttons.
// Malformed markers (unknown action or missing id attribute) are
// tagged processed and left as-is.
func ProcessMarkers(doc *goquery.Document) []Marker {
	var markers []Marker

	doc.Find(MarkerTag).Each(func(_ int, sel *goquery.Selection) {
		if _, done := sel.Attr(processedAttr); done {
			return
		}

		action, _ := sel.Attr("data-action")
		idAttr, known := idAttrs[action]
		if !known {
			sel.SetAttr(processedAttr, "true")
			return
		}
		targetID, ok := sel.Attr(idAttr)
		if !ok || targetID == "" {
			sel.SetAttr(processedAttr, "true")
			return
		}

		marker := Marker{
			Action:   action,
			TargetID: targetID,
			Label:    markerLabel(sel),
			Variant:  sel.AttrOr("data-variant", ""),
		}
		markers = append(markers, marker)

		sel.ReplaceWithHtml(buttonHTML(marker))
	})

	return markers
}

// markerLabel resolves the button text: explicit data-label wins over
// the element's own text, which wins over the generic fallback.
func markerLabel(sel *goquery.Selection) string {
	if label, ok := sel.Attr("data-label"); ok && label != "" {
		return label
	}
	if text := sel.Text(); text != "" {
		return text
	}
	return fallbackLabel
}

func buttonHTML(m Marker) string {
	esc := html.EscapeString
	return fmt.Sprintf(
		`<button type="button" class="xta-btn xta-%s" %s="true" data-xta-action="%s" data-xta-target="%s" data-xta-label="%s" data-xta-variant="%s">%s</button>`,
		kindClass(m.Action), processedAttr,
		esc(m.Action), esc(m.TargetID), esc(m.Label), esc(m.Variant),
		esc(m.Label),
	)
}

func kindClass(action string) string {
	switch action {
	case ActionOpenDocument:
		return "document"
	case ActionOpenQuote:
		return "quote"
	case ActionOpenAttachment:
		return "attachment"
	}
	return "unknown"
}
