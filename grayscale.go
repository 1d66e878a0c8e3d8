package grayscale

import (
	"fmt"
	"sync"
)

// Luminance weights, in hundredths.
const (
	redWeight   = 30
	greenWeight = 59
	blueWeight  = 11
)

// Luminance returns floor(0.3*r + 0.59*g + 0.11*b).
// The sum is computed on integers, so gray inputs (r == g == b) map to themselves.
func Luminance(r, g, b uint8) uint8 {
	return uint8((redWeight*uint32(r) + greenWeight*uint32(g) + blueWeight*uint32(b)) / 100)
}

// Sequential converts src to grayscale in a single pass and returns the result
// in a newly allocated buffer. The source buffer is left untouched.
// Every color channel of a pixel receives its luminance; alpha is copied as is.
func Sequential(src *Buffer) (*Buffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	dst := NewBuffer(src.Width, src.Height, src.Channels)

	c := src.Channels
	for i := 0; i < src.Width*src.Height; i++ {
		idx := i * c
		gray := Luminance(src.Pix[idx], src.Pix[idx+1], src.Pix[idx+2])

		dst.Pix[idx] = gray
		dst.Pix[idx+1] = gray
		dst.Pix[idx+2] = gray
		if c == 4 {
			dst.Pix[idx+3] = src.Pix[idx+3]
		}
	}
	return dst, nil
}

// Parallel converts buf to grayscale in place. The rows are split into one
// contiguous band per worker and every band is processed by its own goroutine.
// If workers is not positive WorkerCount is used; more than MaxWorkers is an
// error. Parallel returns only after all the workers are done.
// Alpha channels are not modified.
func Parallel(buf *Buffer, workers int) error {
	if err := buf.Validate(); err != nil {
		return err
	}
	if workers <= 0 {
		workers = WorkerCount()
	}
	if workers > MaxWorkers {
		return fmt.Errorf("%w, got %d", ErrWorkers, workers)
	}

	views, err := buf.bands(Partitions(buf.Height, workers))
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(len(views))
	for _, rows := range views {
		go func(rows []uint8) {
			defer wg.Done()
			grayscaleRows(rows, buf.Channels)
		}(rows)
	}
	wg.Wait()

	return nil
}

// grayscaleRows rewrites the color channels of the packed pixels in place.
// An empty slice is a no-op.
func grayscaleRows(pix []uint8, channels int) {
	for i := 0; i+2 < len(pix); i += channels {
		gray := Luminance(pix[i], pix[i+1], pix[i+2])
		pix[i], pix[i+1], pix[i+2] = gray, gray, gray
	}
}
