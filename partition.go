package grayscale

import (
	"fmt"
	"runtime"

	"github.com/esimov/grayscale/utils"
)

const (
	// DefaultWorkers is used when the platform does not report its parallelism.
	DefaultWorkers = 4
	// MaxWorkers sets the maximum number of concurrently running workers.
	MaxWorkers = 1024
)

// ErrWorkers is returned when more than MaxWorkers workers are requested.
var ErrWorkers = fmt.Errorf("the number of workers cannot exceed %d", MaxWorkers)

// Partition is a half-open range of image rows [Start, End) owned by one worker.
type Partition struct {
	Start int
	End   int
}

// Len returns the number of rows in the partition.
func (p Partition) Len() int {
	return p.End - p.Start
}

// Empty reports whether the partition covers no rows.
func (p Partition) Empty() bool {
	return p.Start == p.End
}

func (p Partition) String() string {
	return fmt.Sprintf("[%d, %d)", p.Start, p.End)
}

// numCPU is replaced in tests to simulate platforms reporting no parallelism.
var numCPU = runtime.NumCPU

// WorkerCount returns the number of hardware execution units,
// falling back to DefaultWorkers if the platform reports none, capped at MaxWorkers.
func WorkerCount() int {
	n := numCPU()
	if n <= 0 {
		n = DefaultWorkers
	}
	return utils.Clamp(n, 1, MaxWorkers)
}

// Partitions splits height rows into workers contiguous bands.
// Every band holds height/workers rows, the last one absorbing the remainder.
// When height is smaller than workers the leading bands are empty.
// workers is clamped to [1, MaxWorkers].
func Partitions(height, workers int) []Partition {
	workers = utils.Clamp(workers, 1, MaxWorkers)
	height = utils.Max(0, height)

	rowsPerWorker := height / workers
	parts := make([]Partition, workers)
	for k := range parts {
		start := k * rowsPerWorker
		end := start + rowsPerWorker
		if k == workers-1 {
			end = height
		}
		parts[k] = Partition{Start: start, End: end}
	}
	return parts
}

// bands splits the buffer into one row view per partition. It fails unless
// the partitions are well formed, contiguous and cover exactly [0, Height),
// which makes the views pairwise disjoint.
func (b *Buffer) bands(parts []Partition) ([][]uint8, error) {
	views := make([][]uint8, len(parts))
	next := 0
	for i, p := range parts {
		if p.Start != next || p.End < p.Start || p.End > b.Height {
			return nil, fmt.Errorf("malformed partition %d %v of %d rows", i, p, b.Height)
		}
		views[i] = b.Rows(p)
		next = p.End
	}
	if next != b.Height {
		return nil, fmt.Errorf("partitions cover %d of %d rows", next, b.Height)
	}
	return views, nil
}
