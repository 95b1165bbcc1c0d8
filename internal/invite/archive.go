package invite

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/mjoly/fete-invites/internal/domain"
	"github.com/mjoly/fete-invites/pkg/logger"
)

var unsafeEntryChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func entryName(g *domain.Guest) string {
	name := unsafeEntryChars.ReplaceAllString(strings.TrimSpace(g.Name), "_")
	if name == "" {
		name = "guest"
	}
	return fmt.Sprintf("%s-%s.png", name, PublicName(g.UniqueCode))
}

// BuildArchive streams a zip of invitation QR images for the given guests.
// A guest whose image cannot be rendered is skipped with a warning rather
// than aborting the whole archive. Nothing is written to w unless at least
// one entry succeeds, so the caller can still turn an empty archive into a
// clean 404. The number of written entries is returned.
func BuildArchive(ctx context.Context, w io.Writer, guests []domain.Guest, baseURL string) (int, error) {
	var zw *zip.Writer

	written := 0
	for i := range guests {
		g := &guests[i]
		if g.UniqueCode == "" {
			continue
		}

		png, err := RenderQR(g.UniqueCode, baseURL)
		if err != nil {
			logger.WarnContext(ctx, "skipping guest in QR archive",
				"guest_id", g.ID, "error", err)
			continue
		}

		if zw == nil {
			zw = zip.NewWriter(w)
		}
		f, err := zw.Create(entryName(g))
		if err != nil {
			return written, fmt.Errorf("failed to create archive entry: %w", err)
		}
		if _, err := f.Write(png); err != nil {
			return written, fmt.Errorf("failed to write archive entry: %w", err)
		}
		written++
	}

	if zw == nil {
		return 0, nil
	}
	if err := zw.Close(); err != nil {
		return written, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return written, nil
}
