package invite

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestInvitationURL(t *testing.T) {
	got := InvitationURL("https://fete.example.com", "abc123def456")
	want := "https://fete.example.com/?code=abc123def456"
	if got != want {
		t.Errorf("InvitationURL = %q, want %q", got, want)
	}

	// The code must be query-escaped, never trusted as-is.
	escaped := InvitationURL("https://fete.example.com", "a&b=c")
	if strings.Contains(escaped, "&b=") {
		t.Errorf("code not escaped in %q", escaped)
	}
}

func TestPublicNameHidesCode(t *testing.T) {
	code := "deadbeefcafe0123"
	name := PublicName(code)

	if !strings.HasSuffix(name, ".png") {
		t.Errorf("name %q missing .png suffix", name)
	}
	if len(name) != 24+len(".png") {
		t.Errorf("len(%q) = %d, want %d", name, len(name), 24+len(".png"))
	}
	if strings.Contains(name, code) {
		t.Errorf("artifact name %q leaks the code", name)
	}
	if PublicName(code) != name {
		t.Error("PublicName is not deterministic")
	}
	if PublicName("deadbeefcafe0124") == name {
		t.Error("distinct codes produced the same artifact name")
	}
}

func TestRenderQR(t *testing.T) {
	png, err := RenderQR("abc123def456", "https://fete.example.com")
	if err != nil {
		t.Fatalf("RenderQR: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Error("output is not a PNG")
	}
}

func TestDiskStoreSaveAndRemove(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	code := "abc123def456"
	url, err := store.Save(code, []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if url != "/qrcodes/"+PublicName(code) {
		t.Errorf("url = %q", url)
	}

	path := filepath.Join(store.Dir(), PublicName(code))
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("artifact missing: %v", err)
	}

	if err := store.Remove(code); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("artifact still present after Remove")
	}

	// Removing again is not an error.
	if err := store.Remove(code); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}
