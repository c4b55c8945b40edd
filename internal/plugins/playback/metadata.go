package playback

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// TrackMetadata holds tag data probed from a media file at session start.
type TrackMetadata struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
	Genre  string `json:"genre"`
	Year   int    `json:"year"`
	Format string `json:"format"`
}

// Artwork holds embedded cover art extracted from a media file.
type Artwork struct {
	Data     []byte
	MIMEType string
}

// TagReader probes media files for metadata using embedded tags.
type TagReader struct {
	supportedFormats map[string]bool
}

// NewTagReader creates a new tag reader instance
func NewTagReader() *TagReader {
	return &TagReader{
		supportedFormats: map[string]bool{
			"mp3":  true,
			"flac": true,
			"m4a":  true,
			"m4b":  true,
			"mp4":  true,
			"ogg":  true,
			"dsf":  true,
		},
	}
}

// CanReadFile checks if the tag reader can handle the given file extension
func (tr *TagReader) CanReadFile(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return tr.supportedFormats[ext]
}

// ReadMetadata extracts tag metadata from a media file.
func (tr *TagReader) ReadMetadata(path string) (*TrackMetadata, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if fileInfo.Size() == 0 {
		return nil, fmt.Errorf("file is empty: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	tagMetadata, err := tag.ReadFrom(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata from file: %w", err)
	}

	return &TrackMetadata{
		Title:  cleanString(tagMetadata.Title()),
		Artist: cleanString(tagMetadata.Artist()),
		Album:  cleanString(tagMetadata.Album()),
		Genre:  cleanString(tagMetadata.Genre()),
		Year:   tagMetadata.Year(),
		Format: string(tagMetadata.FileType()),
	}, nil
}

// ReadArtwork extracts embedded cover art, if any.
func (tr *TagReader) ReadArtwork(path string) (*Artwork, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	tagMetadata, err := tag.ReadFrom(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata from file: %w", err)
	}

	picture := tagMetadata.Picture()
	if picture == nil || len(picture.Data) == 0 {
		return nil, fmt.Errorf("no embedded artwork in %s", filepath.Base(path))
	}

	return &Artwork{
		Data:     picture.Data,
		MIMEType: picture.MIMEType,
	}, nil
}

// FallbackMetadata derives minimal metadata from a filename for files whose
// tags are missing or unreadable. A bad tag never fails session start.
func FallbackMetadata(path string) *TrackMetadata {
	base := filepath.Base(path)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	format := strings.TrimPrefix(strings.ToUpper(filepath.Ext(base)), ".")

	return &TrackMetadata{
		Title:  title,
		Format: format,
	}
}

func cleanString(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}
