// Package ingest turns platform file selections into playable track records.
// Metadata comes from the files' embedded tags, with filename fallbacks, so
// an untagged file still gets a sensible playlist entry.
package ingest

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/google/uuid"

	"github.com/auraplay/auraplay/internal/domain"
	"github.com/auraplay/auraplay/internal/ports"
)

// fallbackArtist labels tracks whose tags carry no artist.
const fallbackArtist = "Local File"

// artworkURLFormat seeds a deterministic placeholder image per title.
const artworkURLFormat = "https://picsum.photos/seed/%s/300/300"

// mimeByExtension maps supported file extensions to their media types.
var mimeByExtension = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".flac": "audio/flac",
}

// Ingestor is the TrackIngestor implementation.
type Ingestor struct {
	logger *slog.Logger
}

// NewIngestor creates a track ingestor.
func NewIngestor(logger *slog.Logger) *Ingestor {
	return &Ingestor{logger: logger}
}

// IngestFiles resolves a file selection into track records, in selection
// order. Empty and unsupported files are skipped, never errors.
func (in *Ingestor) IngestFiles(selections []ports.FileSelection) []domain.Track {
	tracks := make([]domain.Track, 0, len(selections))
	for _, sel := range selections {
		track, ok := in.ingestOne(sel)
		if !ok {
			continue
		}
		tracks = append(tracks, track)
	}
	return tracks
}

func (in *Ingestor) ingestOne(sel ports.FileSelection) (domain.Track, bool) {
	if len(sel.Data) == 0 {
		in.logger.Warn("skipping empty file", slog.String("name", sel.Name))
		return domain.Track{}, false
	}

	mimeType := sel.MIMEType
	if mimeType == "" {
		mimeType = mimeByExtension[strings.ToLower(filepath.Ext(sel.Name))]
	}
	if !supportedMIMEType(mimeType) {
		in.logger.Warn("skipping unsupported file",
			slog.String("name", sel.Name),
			slog.String("mime", mimeType))
		return domain.Track{}, false
	}

	title, artist := in.readTags(sel)

	return domain.Track{
		ID:         uuid.NewString(),
		Title:      title,
		Artist:     artist,
		ArtworkURL: fmt.Sprintf(artworkURLFormat, url.PathEscape(title)),
		Source:     newBytesSource(sel.Data, mimeType),
	}, true
}

// readTags extracts title and artist from the file's embedded tags, falling
// back to the filename and a generic artist label.
func (in *Ingestor) readTags(sel ports.FileSelection) (title, artist string) {
	title = strings.TrimSuffix(sel.Name, filepath.Ext(sel.Name))
	artist = fallbackArtist

	meta, err := tag.ReadFrom(bytes.NewReader(sel.Data))
	if err != nil {
		in.logger.Debug("no readable tags", slog.String("name", sel.Name))
		return title, artist
	}

	if t := strings.TrimSpace(meta.Title()); t != "" {
		title = t
	}
	if a := strings.TrimSpace(meta.Artist()); a != "" {
		artist = a
	}
	return title, artist
}

func supportedMIMEType(mimeType string) bool {
	switch mimeType {
	case "audio/mpeg", "audio/mp3", "audio/wav", "audio/x-wav", "audio/wave",
		"audio/ogg", "application/ogg", "audio/flac", "audio/x-flac":
		return true
	default:
		return false
	}
}

// Verify that Ingestor implements the TrackIngestor interface.
var _ ports.TrackIngestor = (*Ingestor)(nil)
