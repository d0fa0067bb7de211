package render

import "testing"

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
		check   func(t *testing.T, msg Message)
	}{
		{
			name: "resize",
			data: `{"type":"sandbox-resize","id":"sbx_1","height":240}`,
			check: func(t *testing.T, msg Message) {
				resize, ok := msg.(ResizeMessage)
				if !ok {
					t.Fatalf("Decoded %T, want ResizeMessage", msg)
				}
				if resize.Height != 240 || resize.SessionID() != "sbx_1" {
					t.Errorf("Unexpected resize: %+v", resize)
				}
			},
		},
		{
			name: "action",
			data: `{"type":"tab-action","id":"sbx_1","action":"open-attachment","attachmentId":"att_9","label":"File","source":"html-sandbox"}`,
			check: func(t *testing.T, msg Message) {
				action, ok := msg.(ActionMessage)
				if !ok {
					t.Fatalf("Decoded %T, want ActionMessage", msg)
				}
				if action.TargetID() != "att_9" {
					t.Errorf("TargetID = %q, want att_9", action.TargetID())
				}
			},
		},
		{name: "unknown type", data: `{"type":"selfdestruct","id":"sbx_1"}`, wantErr: true},
		{name: "not json", data: `{{{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, msg)
			}
		})
	}
}
