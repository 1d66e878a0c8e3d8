package grayscale

import (
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/multierr"
	"golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/esimov/grayscale/utils"
)

// DefaultQuality is the JPEG quality used when none is requested.
const DefaultQuality = 100

var (
	// ErrNotImage is returned when the source content is not a known image type.
	ErrNotImage = errors.New("the source is not an image file")
	// ErrUnsupportedFormat is returned for destinations with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// SupportedExtensions lists the destination extensions Encode knows about.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff"}

// Load decodes the image file at path into a packed buffer.
// channels forces the channel count (3 or 4); 0 keeps the source's own.
func Load(path string, channels int) (*Buffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open the source file: %w", err)
	}
	defer file.Close()

	return Decode(file, channels)
}

// Decode sniffs the content type of r and decodes it into a packed buffer.
func Decode(r io.ReadSeeker, channels int) (*Buffer, error) {
	header, err := utils.ReadHeader(r)
	if err != nil {
		return nil, fmt.Errorf("could not read the image header: %w", err)
	}
	if !utils.IsImage(header) {
		return nil, fmt.Errorf("%w: detected %s", ErrNotImage, utils.DetectContentType(header))
	}

	img, err := imaging.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("could not decode the image: %w", err)
	}
	return FromImage(img, channels)
}

// Save encodes the buffer into the file at path. The encoder is selected by
// the file extension. A file which could not be fully written is removed.
func Save(path string, buf *Buffer, quality int) (err error) {
	ext := filepath.Ext(path)
	if !isSupported(ext) {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create the destination file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, file.Close())
		if err != nil {
			if rerr := os.Remove(path); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
				err = multierr.Append(err, rerr)
			}
		}
	}()

	return Encode(file, buf, ext, quality)
}

// Encode writes the buffer to w in the format matching ext.
// An empty extension selects JPEG, the format used for pipes.
func Encode(w io.Writer, buf *Buffer, ext string, quality int) error {
	if err := buf.Validate(); err != nil {
		return err
	}
	if quality <= 0 {
		quality = DefaultQuality
	}
	quality = utils.Clamp(quality, 1, 100)
	img := buf.Image()

	switch ext = strings.ToLower(ext); ext {
	case "", ".jpg", ".jpeg":
		// JPEG has no alpha; drop it instead of letting the encoder premultiply.
		for i := 3; i < len(img.Pix); i += 4 {
			img.Pix[i] = 0xff
		}
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case ".png":
		return png.Encode(w, img)
	case ".bmp":
		return bmp.Encode(w, img)
	case ".gif", ".tif", ".tiff":
		format, err := imaging.FormatFromExtension(ext)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
		}
		return imaging.Encode(w, img, format)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// isSupported checks for the supported extensions.
func isSupported(ext string) bool {
	ext = strings.ToLower(ext)
	for _, ex := range SupportedExtensions {
		if ex == ext {
			return true
		}
	}
	return false
}
