// Package ports define the thin external-collaborator boundaries:
// vibe annotation, identity, and file ingest.
package ports

import (
	"context"

	"github.com/auraplay/auraplay/internal/domain"
)

// VibeAnnotator produces a short descriptive sentence for a track.
// Purely advisory: implementations resolve failures and missing credentials
// to domain.FallbackVibe instead of returning an error. The only error an
// implementation may return is the context's, so callers can distinguish a
// cancelled lookup from a degraded one.
type VibeAnnotator interface {
	Annotate(ctx context.Context, title, artist string) (string, error)
}

// AuthGateway is the sign-in identity provider boundary.
// All failures are swallowed into the signed-out state; nothing here may
// block or break playback.
type AuthGateway interface {
	// SignIn attempts to establish an identity. On success an
	// AuthChangedEvent is published; on failure the gateway stays signed
	// out and returns nil.
	SignIn(ctx context.Context) error

	// SignOut clears the identity and publishes an AuthChangedEvent.
	SignOut() error

	// Identity returns the current identity, or nil when signed out.
	Identity() *domain.Identity
}

// FileSelection is one entry of a platform file-open result.
type FileSelection struct {
	// Name is the file name including extension
	Name string

	// Data is the raw file content
	Data []byte

	// MIMEType is the media type; inferred from the extension when empty
	MIMEType string
}

// TrackIngestor resolves a file selection into playable track records.
// Unsupported or empty selections are skipped, never errors.
type TrackIngestor interface {
	IngestFiles(selections []FileSelection) []domain.Track
}
