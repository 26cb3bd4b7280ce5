package cv

import (
	"image"

	"gocv.io/x/gocv"

	"shape-recognition/pkg/efd"
	apperrors "shape-recognition/pkg/errors"
)

type ContourOptions struct {
	Threshold float32 // re-binarization threshold on the grayscale rendering
	Epsilon   float64 // ApproxPolyDP tolerance in pixels
}

// ContourExtractor traces the closed region boundaries of a rendered
// segmentation.
type ContourExtractor struct {
	opts ContourOptions
}

func NewContourExtractor(opts ContourOptions) *ContourExtractor {
	return &ContourExtractor{opts: opts}
}

// Extract traces every contour of the rendering, nested ones included, in
// the order OpenCV reports them.
func (e *ContourExtractor) Extract(rendered gocv.Mat) ([]efd.Contour, error) {
	if rendered.Empty() {
		return nil, apperrors.NewIOError("cannot trace contours", ErrEmptyImage)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if rendered.Channels() == 1 {
		rendered.CopyTo(&gray)
	} else {
		gocv.CvtColor(rendered, &gray, gocv.ColorBGRToGray)
	}

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(gray, &binary, e.opts.Threshold, 255, gocv.ThresholdBinary)

	hierarchy := gocv.NewMat()
	defer hierarchy.Close()
	traced := gocv.FindContoursWithParams(binary, &hierarchy, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer traced.Close()

	contours := make([]efd.Contour, 0, traced.Size())
	for i := 0; i < traced.Size(); i++ {
		contours = append(contours, efd.Contour(traced.At(i).ToPoints()))
	}
	return contours, nil
}

// Simplify approximates each contour by a closed polygon.
func (e *ContourExtractor) Simplify(contours []efd.Contour) [][]image.Point {
	polygons := make([][]image.Point, 0, len(contours))
	for _, contour := range contours {
		if len(contour) == 0 {
			continue
		}
		points := gocv.NewPointVectorFromPoints(contour)
		approx := gocv.ApproxPolyDP(points, e.opts.Epsilon, true)
		polygons = append(polygons, approx.ToPoints())
		approx.Close()
		points.Close()
	}
	return polygons
}
