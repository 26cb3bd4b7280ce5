package efd

import (
	"errors"
	"fmt"
	"math"
	"sort"

	apperrors "shape-recognition/pkg/errors"
)

var (
	ErrEmptyHistory = errors.New("coefficient history is empty")
	ErrZeroMinimum  = errors.New("smallest coefficient is zero")
	ErrNonFinite    = errors.New("ratio is not finite")
)

var familyNames = [4]string{"a", "b", "c", "d"}

// Descriptor is the scale invariant signature of a silhouette: the max/min
// ratio of the a, b, c and d coefficient histories, in that order.
type Descriptor [4]float64

// Slice returns the components as a new slice.
func (d Descriptor) Slice() []float64 {
	return []float64{d[0], d[1], d[2], d[3]}
}

func (d Descriptor) String() string {
	return fmt.Sprintf("[%g, %g, %g, %g]", d[0], d[1], d[2], d[3])
}

// SortDescending returns a copy of values in non-increasing order.
func SortDescending(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	return sorted
}

// Reduce collapses a coefficient history to max/min.
func Reduce(history []float64) (float64, error) {
	if len(history) == 0 {
		return 0, apperrors.NewNumericDomainError("no descriptor computed", ErrEmptyHistory)
	}

	sorted := SortDescending(history)
	largest := sorted[0]
	smallest := sorted[len(sorted)-1]
	if smallest == 0 {
		return 0, apperrors.NewNumericDomainError("no descriptor computed", ErrZeroMinimum)
	}

	ratio := largest / smallest
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0, apperrors.NewNumericDomainError(fmt.Sprintf("%g / %g", largest, smallest), ErrNonFinite)
	}
	return ratio, nil
}
