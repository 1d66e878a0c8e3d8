package utils

import (
	"errors"
	"io"

	"github.com/h2non/filetype"
)

// HeaderSize is the number of leading bytes inspected to sniff the content type.
const HeaderSize = 512

// ReadHeader reads up to HeaderSize bytes from r and rewinds it to the start.
func ReadHeader(r io.ReadSeeker) ([]byte, error) {
	buffer := make([]byte, HeaderSize)
	n, err := io.ReadFull(r, buffer)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}

	// Reset the read pointer so the decoder sees the whole stream.
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return buffer[:n], nil
}

// DetectContentType returns the MIME type of the content whose leading bytes are given.
// It returns "application/octet-stream" if the signature is not recognized.
func DetectContentType(header []byte) string {
	kind, err := filetype.Match(header)
	if err != nil || kind.MIME.Value == "" {
		return "application/octet-stream"
	}
	return kind.MIME.Value
}

// IsImage reports whether the leading bytes carry a known image signature.
func IsImage(header []byte) bool {
	return filetype.IsImage(header)
}
