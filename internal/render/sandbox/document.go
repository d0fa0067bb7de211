package sandbox

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// ErrEmptyContent is returned when there is nothing to render.
var ErrEmptyContent = errors.New("sandbox: empty content")

// Builder assembles complete iframe documents from stored rich content.
type Builder struct {
	config Config
	policy *bluemonday.Policy
}

// NewBuilder creates a document builder.
func NewBuilder(config Config) *Builder {
	return &Builder{
		config: config,
		policy: buildPolicy(),
	}
}

// buildPolicy extends the UGC policy with the action marker element.
// Markers must survive sanitization so the processing pass can see them.
func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements(MarkerTag)
	p.AllowAttrs(
		"data-action", "data-doc-id", "data-quote-id", "data-attachment-id",
		"data-label", "data-variant", processedAttr,
	).OnElements(MarkerTag)
	p.AllowAttrs("class").Globally()
	p.AllowURLSchemes("mailto", "tel", "http", "https")
	// Anchor hardening is handled after the marker pass; nofollow from
	// the UGC baseline would only fight it.
	p.RequireNoFollowOnLinks(false)
	return p
}

// Build produces a standalone HTML document for one sandbox session.
// Attachment URIs in content are expected to be resolved already. The
// returned markers are the action markers the server pass converted.
func (b *Builder) Build(sandboxID, content string) (string, []Marker, error) {
	if strings.TrimSpace(content) == "" {
		return "", nil, ErrEmptyContent
	}

	if b.config.Sanitize {
		content = b.policy.Sanitize(content)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", nil, fmt.Errorf("parse content: %w", err)
	}

	markers := ProcessMarkers(doc)
	hardenAnchors(doc)
	injectHead(doc, sandboxID)

	rendered, err := doc.Html()
	if err != nil {
		return "", nil, fmt.Errorf("serialize document: %w", err)
	}
	if !strings.HasPrefix(rendered, "<!DOCTYPE") {
		rendered = "<!DOCTYPE html>\n" + rendered
	}
	return rendered, markers, nil
}

// hardenAnchors forces external links out of the frame and severs the
// opener relationship. mailto: and tel: links are left alone, and an
// author's explicit rel wins over the default.
func hardenAnchors(doc *goquery.Document) {
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		scheme := strings.ToLower(href)
		if strings.HasPrefix(scheme, "mailto:") || strings.HasPrefix(scheme, "tel:") {
			return
		}
		sel.SetAttr("target", "_blank")
		if _, ok := sel.Attr("rel"); !ok {
			sel.SetAttr("rel", "noopener noreferrer")
		}
	})
}

func injectHead(doc *goquery.Document, sandboxID string) {
	head := doc.Find("head").First()
	head.AppendHtml(`<meta charset="utf-8">`)
	head.AppendHtml(`<base target="_blank">`)
	head.AppendHtml("<style>" + documentStyle + "</style>")
	doc.Find("body").First().AppendHtml(
		"<script>" + BootstrapScript(sandboxID) + "</script>")
}

// documentStyle keeps the frame borderless and styles action buttons.
// overflow is hidden because the host sizes the frame to content, so
// inner scrollbars would only flicker during height negotiation.
const documentStyle = `
html, body { margin: 0; padding: 0; overflow: hidden; }
body { font: 14px/1.6 -apple-system, "Segoe UI", sans-serif; color: #24292f; }
img { max-width: 100%; height: auto; }
.xta-btn {
  display: inline-block; margin: 0 2px; padding: 2px 10px;
  border: 1px solid transparent; border-radius: 4px;
  font-size: 13px; line-height: 1.5; cursor: pointer;
}
.xta-document { background: #ddf4ff; border-color: #54aeff; color: #0969da; }
.xta-quote { background: #fff8c5; border-color: #d4a72c; color: #7d4e00; }
.xta-attachment { background: #dafbe1; border-color: #4ac26b; color: #1a7f37; }
.xta-unknown { background: #f6f8fa; border-color: #d0d7de; color: #57606a; }
`
