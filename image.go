package grayscale

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

var (
	// ErrChannels is returned for buffers which do not carry RGB or RGBA pixels.
	ErrChannels = errors.New("unsupported channel count")
	// ErrBufferSize is returned when the pixel slice does not match the image dimensions.
	ErrBufferSize = errors.New("pixel buffer size mismatch")
)

// Buffer is a packed, row-major pixel buffer with interleaved channels.
// The first three channels of every pixel are red, green and blue;
// a fourth channel, if present, is alpha.
type Buffer struct {
	Pix      []uint8
	Width    int
	Height   int
	Channels int
}

// NewBuffer allocates a zeroed buffer of the given dimensions.
func NewBuffer(width, height, channels int) *Buffer {
	return &Buffer{
		Pix:      make([]uint8, width*height*channels),
		Width:    width,
		Height:   height,
		Channels: channels,
	}
}

// Stride returns the number of bytes of a single row.
func (b *Buffer) Stride() int {
	return b.Width * b.Channels
}

// Validate checks the buffer invariants.
func (b *Buffer) Validate() error {
	if b.Channels != 3 && b.Channels != 4 {
		return fmt.Errorf("%w: %d", ErrChannels, b.Channels)
	}
	if b.Width < 0 || b.Height < 0 {
		return fmt.Errorf("%w: negative dimensions %dx%d", ErrBufferSize, b.Width, b.Height)
	}
	if want := b.Width * b.Height * b.Channels; len(b.Pix) != want {
		return fmt.Errorf("%w: expected %d bytes for %dx%dx%d, got %d",
			ErrBufferSize, want, b.Width, b.Height, b.Channels, len(b.Pix))
	}
	return nil
}

// Rows returns the bytes of the rows covered by the partition.
// The capacity of the returned slice is capped at the partition end,
// so appending to it can never reach into the rows that follow.
func (b *Buffer) Rows(p Partition) []uint8 {
	stride := b.Stride()
	lo, hi := p.Start*stride, p.End*stride
	return b.Pix[lo:hi:hi]
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	dst := *b
	dst.Pix = make([]uint8, len(b.Pix))
	copy(dst.Pix, b.Pix)
	return &dst
}

// Image converts the buffer to *image.NRGBA. Three channel buffers become fully opaque.
func (b *Buffer) Image() *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))

	if b.Channels == 4 {
		copy(dst.Pix, b.Pix)
		return dst
	}
	for si, di := 0, 0; si < len(b.Pix); si, di = si+b.Channels, di+4 {
		dst.Pix[di+0] = b.Pix[si+0]
		dst.Pix[di+1] = b.Pix[si+1]
		dst.Pix[di+2] = b.Pix[si+2]
		dst.Pix[di+3] = 0xff
	}
	return dst
}

// FromImage converts any image type to a packed buffer with min-point at (0, 0).
// If channels is 0 the channel count is chosen from the source: images
// which are not fully opaque keep their alpha channel, all others are packed as RGB.
func FromImage(img image.Image, channels int) (*Buffer, error) {
	if channels == 0 {
		channels = 3
		if !isOpaque(img) {
			channels = 4
		}
	}
	if channels != 3 && channels != 4 {
		return nil, fmt.Errorf("%w: %d", ErrChannels, channels)
	}

	srcBounds := img.Bounds()
	srcMinX := srcBounds.Min.X
	srcMinY := srcBounds.Min.Y
	dstW := srcBounds.Dx()
	dstH := srcBounds.Dy()
	dst := NewBuffer(dstW, dstH, channels)

	switch src := img.(type) {
	case *image.NRGBA:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dstY * dst.Stride()
			si := src.PixOffset(srcMinX, srcMinY+dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				copy(dst.Pix[di:di+channels], src.Pix[si:si+channels])
				di += channels
				si += 4
			}
		}
	case *image.YCbCr:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dstY * dst.Stride()
			for dstX := 0; dstX < dstW; dstX++ {
				srcX := srcMinX + dstX
				srcY := srcMinY + dstY
				siy := src.YOffset(srcX, srcY)
				sic := src.COffset(srcX, srcY)
				r, g, b := color.YCbCrToRGB(src.Y[siy], src.Cb[sic], src.Cr[sic])
				dst.Pix[di+0] = r
				dst.Pix[di+1] = g
				dst.Pix[di+2] = b
				if channels == 4 {
					dst.Pix[di+3] = 0xff
				}
				di += channels
			}
		}
	default:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dstY * dst.Stride()
			for dstX := 0; dstX < dstW; dstX++ {
				c := color.NRGBAModel.Convert(img.At(srcMinX+dstX, srcMinY+dstY)).(color.NRGBA)
				dst.Pix[di+0] = c.R
				dst.Pix[di+1] = c.G
				dst.Pix[di+2] = c.B
				if channels == 4 {
					dst.Pix[di+3] = c.A
				}
				di += channels
			}
		}
	}

	return dst, nil
}

// isOpaque reports whether every pixel of the image is fully opaque.
func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}
