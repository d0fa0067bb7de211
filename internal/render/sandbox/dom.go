package sandbox

import (
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// DOM is a lightweight document proxy exposed to sandboxed script.
// It is built once from parsed HTML; scripts see a live tree through
// element proxies but never touch the host's goquery documents.
type DOM struct {
	root *Element
	mu   sync.RWMutex
}

// Element mirrors one HTML element.
type Element struct {
	TagName    string
	Attributes map[string]string
	Children   []*Element
	Parent     *Element
	text       string
}

// ParseDOM builds a DOM proxy from an HTML string.
func ParseDOM(content string) (*DOM, error) {
	node, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	root := &Element{TagName: "#document", Attributes: map[string]string{}}
	convertChildren(node, root)
	return &DOM{root: root}, nil
}

func convertChildren(node *html.Node, parent *Element) {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case html.ElementNode:
			elem := &Element{
				TagName:    strings.ToLower(child.Data),
				Attributes: map[string]string{},
				Parent:     parent,
			}
			for _, attr := range child.Attr {
				elem.Attributes[strings.ToLower(attr.Key)] = attr.Val
			}
			parent.Children = append(parent.Children, elem)
			convertChildren(child, elem)
		case html.TextNode:
			parent.text += child.Data
		}
	}
}

// Query finds elements by a simple selector: tag, #id, or .class.
func (d *DOM) Query(selector string) []*Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	selector = strings.TrimSpace(selector)
	switch {
	case strings.HasPrefix(selector, "#"):
		want := strings.TrimPrefix(selector, "#")
		return d.root.collect(func(e *Element) bool { return e.Attributes["id"] == want })
	case strings.HasPrefix(selector, "."):
		want := strings.TrimPrefix(selector, ".")
		return d.root.collect(func(e *Element) bool { return e.hasClass(want) })
	default:
		want := strings.ToLower(selector)
		return d.root.collect(func(e *Element) bool { return e.TagName == want })
	}
}

func (e *Element) collect(match func(*Element) bool) []*Element {
	var out []*Element
	var walk func(*Element)
	walk = func(cur *Element) {
		for _, child := range cur.Children {
			if match(child) {
				out = append(out, child)
			}
			walk(child)
		}
	}
	walk(e)
	return out
}

func (e *Element) hasClass(name string) bool {
	for _, c := range strings.Fields(e.Attributes["class"]) {
		if c == name {
			return true
		}
	}
	return false
}

// GetAttribute returns an attribute value, empty when absent.
func (e *Element) GetAttribute(name string) string {
	return e.Attributes[strings.ToLower(name)]
}

// SetAttribute sets an attribute value.
func (e *Element) SetAttribute(name, value string) {
	e.Attributes[strings.ToLower(name)] = value
}

// HasAttribute reports attribute presence.
func (e *Element) HasAttribute(name string) bool {
	_, ok := e.Attributes[strings.ToLower(name)]
	return ok
}

// TextContent returns the element's own and descendant text.
func (e *Element) TextContent() string {
	var b strings.Builder
	var walk func(*Element)
	walk = func(cur *Element) {
		b.WriteString(cur.text)
		for _, child := range cur.Children {
			walk(child)
		}
	}
	walk(e)
	return b.String()
}
