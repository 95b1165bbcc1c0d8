package invite

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/skip2/go-qrcode"
)

const qrImageSize = 512

// InvitationURL builds the URL a scanned QR code resolves to. The code
// travels only inside the query string, never in a path segment.
func InvitationURL(baseURL, code string) string {
	return fmt.Sprintf("%s/?code=%s", baseURL, url.QueryEscape(code))
}

// RenderQR encodes the invitation URL for one code into a PNG.
func RenderQR(code, baseURL string) ([]byte, error) {
	png, err := qrcode.Encode(InvitationURL(baseURL, code), qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}

// PublicName derives the artifact file name from a hash of the code, so
// the stored image never exposes the code itself as a guessable path.
func PublicName(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])[:24] + ".png"
}

// DiskStore keeps rendered QR images on local disk and maps them to the
// public /qrcodes/ path served by the router.
type DiskStore struct {
	dir       string
	urlPrefix string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create QR directory: %w", err)
	}
	return &DiskStore{dir: dir, urlPrefix: "/qrcodes/"}, nil
}

func (s *DiskStore) Dir() string { return s.dir }

// Save writes the image under its public name and returns the URL path the
// client can fetch it from.
func (s *DiskStore) Save(code string, png []byte) (string, error) {
	name := PublicName(code)
	if err := os.WriteFile(filepath.Join(s.dir, name), png, 0o644); err != nil {
		return "", fmt.Errorf("failed to write QR image: %w", err)
	}
	return s.urlPrefix + name, nil
}

// Remove deletes the artifact for a code. Used on guest deletion,
// best-effort.
func (s *DiskStore) Remove(code string) error {
	err := os.Remove(filepath.Join(s.dir, PublicName(code)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
