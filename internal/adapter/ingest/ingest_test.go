package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auraplay/auraplay/internal/domain"
	"github.com/auraplay/auraplay/internal/logger"
	"github.com/auraplay/auraplay/internal/ports"
	"github.com/auraplay/auraplay/internal/testutil"
)

// id3v2 builds a minimal ID3v2.3 tag with title and artist frames.
func id3v2(title, artist string) []byte {
	frame := func(id, text string) []byte {
		payload := append([]byte{0}, []byte(text)...)
		b := []byte(id)
		size := len(payload)
		b = append(b, byte(size>>24), byte(size>>16), byte(size>>8), byte(size))
		b = append(b, 0, 0)
		return append(b, payload...)
	}

	body := append(frame("TIT2", title), frame("TPE1", artist)...)
	header := []byte{'I', 'D', '3', 3, 0, 0}
	size := len(body)
	header = append(header,
		byte(size>>21&0x7f), byte(size>>14&0x7f), byte(size>>7&0x7f), byte(size&0x7f))
	return append(header, body...)
}

func newTestIngestor(t *testing.T) *Ingestor {
	t.Helper()
	return NewIngestor(logger.NewTestLogger())
}

func TestIngestor_TaggedFile(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	in := newTestIngestor(t)

	tracks := in.IngestFiles([]ports.FileSelection{
		{Name: "song.mp3", Data: id3v2("Midnight Drive", "The Night Owls")},
	})

	require.Len(t, tracks, 1)
	assert.Equal(t, "Midnight Drive", tracks[0].Title)
	assert.Equal(t, "The Night Owls", tracks[0].Artist)
	assert.NotEmpty(t, tracks[0].ID)
	assert.Contains(t, tracks[0].ArtworkURL, "picsum.photos/seed/")
	assert.Equal(t, "audio/mpeg", tracks[0].Source.MIMEType())
}

func TestIngestor_UntaggedFileFallsBackToFilename(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	in := newTestIngestor(t)

	tracks := in.IngestFiles([]ports.FileSelection{
		{Name: "demo take 3.wav", Data: []byte("RIFFxxxx")},
	})

	require.Len(t, tracks, 1)
	assert.Equal(t, "demo take 3", tracks[0].Title)
	assert.Equal(t, fallbackArtist, tracks[0].Artist)
	assert.Equal(t, "audio/wav", tracks[0].Source.MIMEType())
}

func TestIngestor_SkipsUnsupportedAndEmpty(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	in := newTestIngestor(t)

	tracks := in.IngestFiles([]ports.FileSelection{
		{Name: "movie.mp4", Data: []byte("x")},
		{Name: "notes.txt", Data: []byte("x")},
		{Name: "empty.mp3", Data: nil},
		{Name: "keeper.flac", Data: []byte("fLaC")},
	})

	require.Len(t, tracks, 1)
	assert.Equal(t, "keeper", tracks[0].Title)
}

func TestIngestor_ExplicitMIMETypeWins(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	in := newTestIngestor(t)

	tracks := in.IngestFiles([]ports.FileSelection{
		{Name: "stream.bin", Data: []byte("x"), MIMEType: "audio/ogg"},
	})

	require.Len(t, tracks, 1)
	assert.Equal(t, "audio/ogg", tracks[0].Source.MIMEType())
}

func TestIngestor_UniqueTrackIDs(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	in := newTestIngestor(t)

	data := []byte("RIFFxxxx")
	tracks := in.IngestFiles([]ports.FileSelection{
		{Name: "same.wav", Data: data},
		{Name: "same.wav", Data: data},
	})

	require.Len(t, tracks, 2)
	assert.NotEqual(t, tracks[0].ID, tracks[1].ID)
}

func TestBytesSource_ReleaseInvalidatesOpen(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	src := newBytesSource([]byte("pcm"), "audio/wav")

	r, err := src.Open()
	require.NoError(t, err)
	require.NoError(t, r.Close())

	require.NoError(t, src.Release())
	require.NoError(t, src.Release()) // idempotent

	_, err = src.Open()
	assert.ErrorIs(t, err, domain.ErrSourceReleased)
}
