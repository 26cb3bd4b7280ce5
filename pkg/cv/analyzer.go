package cv

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"shape-recognition/pkg/config"
	"shape-recognition/pkg/efd"
	"shape-recognition/pkg/shape"
)

// Analyzer turns an image file into its silhouette: load, segment, render,
// trace.
type Analyzer struct {
	segmenter *Segmenter
	extractor *ContourExtractor
}

func NewAnalyzer(cfg config.Config) *Analyzer {
	return &Analyzer{
		segmenter: NewSegmenter(SegmenterOptions{
			BinaryThreshold:   float32(cfg.BinaryThreshold),
			MinRegionFraction: cfg.MinRegionFraction,
			FoldLabel:         int32(cfg.FoldLabel),
		}),
		extractor: NewContourExtractor(ContourOptions{
			Threshold: float32(cfg.ContourThreshold),
			Epsilon:   cfg.SimplifyEpsilon,
		}),
	}
}

// Extract processes one image. When renderPath is not empty the colored
// segmentation is written there.
func (a *Analyzer) Extract(imagePath, renderPath string) (*shape.Silhouette, error) {
	gray, err := LoadGrayscale(imagePath)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	rendered, err := a.segmenter.Segment(gray)
	if err != nil {
		return nil, err
	}
	defer rendered.Close()

	if renderPath != "" {
		if err := WriteImage(renderPath, rendered); err != nil {
			return nil, err
		}
	}

	contours, err := a.extractor.Extract(rendered)
	if err != nil {
		return nil, err
	}

	return &shape.Silhouette{
		Path:     imagePath,
		Bounds:   image.Rect(0, 0, gray.Cols(), gray.Rows()),
		Contours: contours,
	}, nil
}

// RenderContours draws the simplified polygons of contours in white on a
// black canvas the size of bounds and writes it to path.
func (a *Analyzer) RenderContours(path string, bounds image.Rectangle, contours []efd.Contour) error {
	canvas := gocv.Zeros(bounds.Dy(), bounds.Dx(), gocv.MatTypeCV8UC1)
	defer canvas.Close()

	polygons := a.extractor.Simplify(contours)
	if len(polygons) > 0 {
		shapes := gocv.NewPointsVectorFromPoints(polygons)
		defer shapes.Close()
		gocv.DrawContours(&canvas, shapes, -1, color.RGBA{R: 255, G: 255, B: 255, A: 255}, 1)
	}

	return WriteImage(path, canvas)
}
