package attachment

import (
	"bytes"
	"strings"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return store
}

func TestCreateSniffsContentType(t *testing.T) {
	store := openTestStore(t)

	tests := []struct {
		name     string
		filename string
		data     []byte
		wantType string
	}{
		{
			name:     "plain text",
			filename: "notes.txt",
			data:     []byte("just some text"),
			wantType: "text/plain",
		},
		{
			name:     "png ignores extension",
			filename: "image.txt",
			data:     []byte("\x89PNG\r\n\x1a\n" + strings.Repeat("\x00", 16)),
			wantType: "image/png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			att, err := store.Create(tt.filename, tt.data)
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if !strings.HasPrefix(att.ContentType, tt.wantType) {
				t.Errorf("ContentType = %q, want prefix %q", att.ContentType, tt.wantType)
			}
			if att.Size != int64(len(tt.data)) {
				t.Errorf("Size = %d, want %d", att.Size, len(tt.data))
			}
		})
	}
}

func TestBlobRoundTrip(t *testing.T) {
	store := openTestStore(t)

	data := []byte("blob payload")
	att, err := store.Create("file.bin", data)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.Blob(att.ID)
	if err != nil {
		t.Fatalf("Blob() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("Blob() does not match upload")
	}
}

func TestDeleteRemovesBlob(t *testing.T) {
	store := openTestStore(t)

	att, _ := store.Create("gone.txt", []byte("soon deleted"))
	if err := store.Delete(att.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := store.Get(att.ID); ok {
		t.Error("Metadata survives delete")
	}
	if _, err := store.Blob(att.ID); err == nil {
		t.Error("Blob survives delete")
	}
}

func TestCreateRejectsOversized(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.Create("big.bin", make([]byte, MaxBlobSize+1)); err == nil {
		t.Error("Create() should reject blobs over the size limit")
	}
}

func TestTextCharsetNormalization(t *testing.T) {
	store := openTestStore(t)

	// GBK-encoded "中文" with enough ASCII context for detection.
	gbk := append([]byte("hello chinese text: "), 0xD6, 0xD0, 0xCE, 0xC4)
	att, err := store.Create("cn.txt", gbk)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Whatever the detector decided, the stored blob must be valid
	// UTF-8 readable text.
	blob, err := store.Blob(att.ID)
	if err != nil {
		t.Fatalf("Blob() error = %v", err)
	}
	if len(blob) == 0 {
		t.Fatal("Empty blob after normalization")
	}
	if !strings.Contains(string(blob), "hello chinese text:") {
		t.Error("ASCII prefix lost in normalization")
	}
}
