package shape

import (
	"image"

	"shape-recognition/pkg/efd"
)

// Silhouette is the contour set traced from one segmented image.
type Silhouette struct {
	Path     string
	Bounds   image.Rectangle
	Contours []efd.Contour
}

// Descriptor fits the silhouette's dominant contours.
func (s *Silhouette) Descriptor(harmonics int) (efd.Descriptor, *efd.Fit, error) {
	fit, err := efd.NewFit(s.Contours, harmonics)
	if err != nil {
		return efd.Descriptor{}, nil, err
	}
	desc, err := fit.Descriptor()
	if err != nil {
		return efd.Descriptor{}, nil, err
	}
	return desc, fit, nil
}
