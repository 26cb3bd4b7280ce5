package efd

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	apperrors "shape-recognition/pkg/errors"
)

// DefaultHarmonics is the number of Fourier modes fitted per contour.
const DefaultHarmonics = 8

var (
	ErrNoContours   = errors.New("no contours to fit")
	ErrBadHarmonics = errors.New("harmonic count must be >= 1")
	ErrEmptyContour = errors.New("contour has no points")
)

// History records every intermediate value of the a, b, c and d
// accumulators, contour-major, then point-major, then harmonic-minor.
type History struct {
	A []float64 `json:"a"`
	B []float64 `json:"b"`
	C []float64 `json:"c"`
	D []float64 `json:"d"`
}

// Len returns the number of accumulation events.
func (h History) Len() int {
	return len(h.A)
}

// Fit holds the harmonic coefficients of the dominant contours of one image.
//
// The coefficient tables have one row per input contour and Harmonics+1
// columns. Column k (k >= 1) holds the k-th harmonic; column 0 holds the
// centroid (A: x, C: y) so that a row fully describes the truncated series.
// Rows of contours that did not qualify stay zero.
type Fit struct {
	Harmonics  int
	Threshold  int   // length of the longest contour
	Qualifying []int // indices of contours whose length reached Threshold
	Centroids  []Point2D
	A, B, C, D *mat.Dense
	History    History

	contours []Contour
}

// NewFit fits a truncated Fourier series to the coordinate increments of
// every contour whose point count is at least the maximum point count.
//
// Contours shorter than the longest one contribute nothing. A qualifying
// contour without a mass center fails the fit with a degenerate contour
// error; an empty contour set fails with a numeric domain error.
func NewFit(contours []Contour, harmonics int) (*Fit, error) {
	if harmonics < 1 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("harmonics = %d", harmonics), ErrBadHarmonics)
	}
	if len(contours) == 0 {
		return nil, apperrors.NewNumericDomainError("no descriptor computed", ErrNoContours)
	}

	threshold := 0
	for _, contour := range contours {
		if len(contour) > threshold {
			threshold = len(contour)
		}
	}
	if threshold == 0 {
		return nil, apperrors.NewNumericDomainError("no descriptor computed", ErrEmptyContour)
	}

	f := &Fit{
		Harmonics: harmonics,
		Threshold: threshold,
		Centroids: make([]Point2D, len(contours)),
		A:         mat.NewDense(len(contours), harmonics+1, nil),
		B:         mat.NewDense(len(contours), harmonics+1, nil),
		C:         mat.NewDense(len(contours), harmonics+1, nil),
		D:         mat.NewDense(len(contours), harmonics+1, nil),
		contours:  contours,
	}

	for contourIndex, contour := range contours {
		if len(contour) < threshold {
			continue
		}
		centroid, err := Centroid(contour)
		if err != nil {
			return nil, fmt.Errorf("contour %d: %w", contourIndex, err)
		}
		f.Centroids[contourIndex] = centroid
		f.A.Set(contourIndex, 0, centroid.X)
		f.C.Set(contourIndex, 0, centroid.Y)
		f.Qualifying = append(f.Qualifying, contourIndex)
		f.accumulate(contourIndex, contour)
	}

	return f, nil
}

func (f *Fit) accumulate(row int, contour Contour) {
	period := len(contour)
	w := 2 * math.Pi / float64(period)

	for tp := 1; tp < period; tp++ {
		dx := float64(contour[tp].X - contour[tp-1].X)
		dy := float64(contour[tp].Y - contour[tp-1].Y)
		t1 := w * float64(tp)
		t0 := w * float64(tp-1)

		for k := 1; k <= f.Harmonics; k++ {
			kf := float64(k)
			factor := 1 / (math.Pi * w * kf * kf)
			cosDiff := math.Cos(kf*t1) - math.Cos(kf*t0)
			sinDiff := math.Sin(kf*t1) - math.Sin(kf*t0)

			a := f.A.At(row, k) + factor*dx*cosDiff
			b := f.B.At(row, k) + factor*dx*sinDiff
			c := f.C.At(row, k) + factor*dy*cosDiff
			d := f.D.At(row, k) + factor*dy*sinDiff
			f.A.Set(row, k, a)
			f.B.Set(row, k, b)
			f.C.Set(row, k, c)
			f.D.Set(row, k, d)

			f.History.A = append(f.History.A, a)
			f.History.B = append(f.History.B, b)
			f.History.C = append(f.History.C, c)
			f.History.D = append(f.History.D, d)
		}
	}
}

// Descriptor reduces each coefficient history to its max/min ratio.
func (f *Fit) Descriptor() (Descriptor, error) {
	var desc Descriptor
	families := [4][]float64{f.History.A, f.History.B, f.History.C, f.History.D}
	for i, history := range families {
		ratio, err := Reduce(history)
		if err != nil {
			return Descriptor{}, fmt.Errorf("%s coefficients: %w", familyNames[i], err)
		}
		desc[i] = ratio
	}
	return desc, nil
}

// Reconstruct resynthesizes every qualifying contour from its truncated
// series. The first point is kept as traced; the others are rebuilt around
// the centroid.
func (f *Fit) Reconstruct() []Contour {
	rebuilt := make([]Contour, 0, len(f.Qualifying))
	for _, row := range f.Qualifying {
		original := f.contours[row]
		period := len(original)
		w := 2 * math.Pi / float64(period)

		contour := make(Contour, period)
		contour[0] = original[0]
		for tp := 1; tp < period; tp++ {
			x := f.A.At(row, 0)
			y := f.C.At(row, 0)
			for k := 1; k <= f.Harmonics; k++ {
				angle := float64(k) * w * float64(tp)
				cos, sin := math.Cos(angle), math.Sin(angle)
				x += f.A.At(row, k)*cos + f.B.At(row, k)*sin
				y += f.C.At(row, k)*cos + f.D.At(row, k)*sin
			}
			contour[tp].X = int(math.Round(x))
			contour[tp].Y = int(math.Round(y))
		}
		rebuilt = append(rebuilt, contour)
	}
	return rebuilt
}

// Compute fits contours and returns their descriptor.
func Compute(contours []Contour, harmonics int) (Descriptor, error) {
	f, err := NewFit(contours, harmonics)
	if err != nil {
		return Descriptor{}, err
	}
	return f.Descriptor()
}
