package ingest

import (
	"bytes"
	"io"
	"sync"

	"github.com/auraplay/auraplay/internal/domain"
)

// bytesSource is an in-memory media source backed by the ingested file data.
// Release drops the backing slice so a replaced playlist frees its audio.
type bytesSource struct {
	mimeType string

	mu       sync.Mutex
	data     []byte
	released bool
}

func newBytesSource(data []byte, mimeType string) *bytesSource {
	return &bytesSource{data: data, mimeType: mimeType}
}

// Open returns a reader over the encoded audio data.
func (s *bytesSource) Open() (io.ReadSeekCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil, domain.ErrSourceReleased
	}
	return &bytesReader{Reader: bytes.NewReader(s.data)}, nil
}

// MIMEType returns the media type of the encoded data.
func (s *bytesSource) MIMEType() string {
	return s.mimeType
}

// Release frees the underlying data. Open fails afterwards.
func (s *bytesSource) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.released = true
	s.data = nil
	return nil
}

// bytesReader adds a no-op Close to bytes.Reader.
type bytesReader struct {
	*bytes.Reader
}

func (*bytesReader) Close() error { return nil }

// Verify that bytesSource implements the MediaSource interface.
var _ domain.MediaSource = (*bytesSource)(nil)
