package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Source is one file handed to the queue: enough metadata to validate and
// negotiate before any bytes are read, plus a way to open the byte stream at
// transfer time. Size 0 means the length is unknown up front, in which case
// no progress is reported for the transfer.
type Source struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FromPath builds a Source for a file on disk, sniffing the content type from
// the file's magic bytes rather than trusting its extension.
func FromPath(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Source{}, fmt.Errorf("%s is a directory", path)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("detect content type of %s: %w", path, err)
	}
	contentType := mtype.String()
	if idx := strings.IndexByte(contentType, ';'); idx >= 0 {
		contentType = contentType[:idx]
	}

	return Source{
		Name:        filepath.Base(path),
		ContentType: strings.TrimSpace(contentType),
		Size:        info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}
