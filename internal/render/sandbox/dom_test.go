package sandbox

import "testing"

func TestDOMQuery(t *testing.T) {
	dom, err := ParseDOM(`<div id="main" class="wrap outer"><span class="wrap">a</span><p>b</p></div>`)
	if err != nil {
		t.Fatalf("ParseDOM() error = %v", err)
	}

	tests := []struct {
		name     string
		selector string
		wantLen  int
	}{
		{name: "ID selector", selector: "#main", wantLen: 1},
		{name: "class selector", selector: ".wrap", wantLen: 2},
		{name: "tag selector", selector: "p", wantLen: 1},
		{name: "non-existent", selector: "#not-found", wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := dom.Query(tt.selector)
			if len(results) != tt.wantLen {
				t.Errorf("Query(%s) returned %d elements, want %d", tt.selector, len(results), tt.wantLen)
			}
		})
	}
}

func TestDOMAttributes(t *testing.T) {
	dom, err := ParseDOM(`<button data-xta-action="open-quote" data-xta-target="qt_1">Quote</button>`)
	if err != nil {
		t.Fatalf("ParseDOM() error = %v", err)
	}

	buttons := dom.Query("button")
	if len(buttons) != 1 {
		t.Fatalf("Expected 1 button, got %d", len(buttons))
	}

	btn := buttons[0]
	if got := btn.GetAttribute("data-xta-action"); got != "open-quote" {
		t.Errorf("GetAttribute = %q, want open-quote", got)
	}
	if !btn.HasAttribute("data-xta-target") {
		t.Error("HasAttribute(data-xta-target) = false")
	}
	if btn.TextContent() != "Quote" {
		t.Errorf("TextContent = %q, want Quote", btn.TextContent())
	}

	btn.SetAttribute("data-xta-processed", "true")
	if !btn.HasAttribute("data-xta-processed") {
		t.Error("SetAttribute did not stick")
	}
}
