package shape

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"shape-recognition/pkg/efd"
	apperrors "shape-recognition/pkg/errors"
)

var (
	ErrNoDescriptors     = errors.New("no descriptors to average")
	ErrInvalidDescriptor = errors.New("descriptor has a NaN or infinite component")
)

// Reference is the averaged descriptor of a training set.
type Reference struct {
	Descriptor efd.Descriptor `json:"descriptor"`
	Count      int            `json:"count"`
}

// Aggregator keeps a running elementwise sum of descriptors.
type Aggregator struct {
	sum   []float64
	count int
}

func NewAggregator() *Aggregator {
	return &Aggregator{sum: make([]float64, len(efd.Descriptor{}))}
}

// Add includes d in the average. Descriptors with non-finite components are
// rejected so that they never reach the sum.
func (a *Aggregator) Add(d efd.Descriptor) error {
	values := d.Slice()
	if floats.HasNaN(values) || hasInf(values) {
		return apperrors.NewNumericDomainError(fmt.Sprintf("descriptor %v", d), ErrInvalidDescriptor)
	}
	floats.Add(a.sum, values)
	a.count++
	return nil
}

func (a *Aggregator) Count() int {
	return a.count
}

// Reference returns the elementwise mean of every added descriptor.
func (a *Aggregator) Reference() (*Reference, error) {
	if a.count == 0 {
		return nil, apperrors.NewValidationError("no reference descriptor", ErrNoDescriptors)
	}
	mean := make([]float64, len(a.sum))
	floats.ScaleTo(mean, 1/float64(a.count), a.sum)

	var ref Reference
	copy(ref.Descriptor[:], mean)
	ref.Count = a.count
	return &ref, nil
}

// Average returns the elementwise mean of descriptors.
func Average(descriptors []efd.Descriptor) (efd.Descriptor, error) {
	agg := NewAggregator()
	for _, d := range descriptors {
		if err := agg.Add(d); err != nil {
			return efd.Descriptor{}, err
		}
	}
	ref, err := agg.Reference()
	if err != nil {
		return efd.Descriptor{}, err
	}
	return ref.Descriptor, nil
}

func hasInf(values []float64) bool {
	for _, v := range values {
		if math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
