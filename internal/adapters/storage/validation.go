package storage

import (
	"errors"
	"fmt"
	"mime"
	"strings"
)

var ErrEmptyExport = errors.New("export is empty")

var exportContentTypes = map[string]string{
	"text/csv": ".csv",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": ".xlsx",
}

// checkExport accepts CSV and XLSX bodies up to maxSize bytes (0 means no
// limit) whose file name carries the matching extension.
func checkExport(fileName, contentType string, size, maxSize int64) error {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("content type %q: %w", contentType, err)
	}
	ext, ok := exportContentTypes[strings.ToLower(mediaType)]
	if !ok {
		return fmt.Errorf("content type %q is not an export format", contentType)
	}
	if !strings.HasSuffix(strings.ToLower(fileName), ext) {
		return fmt.Errorf("file %q does not match content type %q", fileName, mediaType)
	}
	if size <= 0 {
		return ErrEmptyExport
	}
	if maxSize > 0 && size > maxSize {
		return fmt.Errorf("export of %d bytes exceeds the %d byte limit", size, maxSize)
	}
	return nil
}
