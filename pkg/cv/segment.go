package cv

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"

	apperrors "shape-recognition/pkg/errors"
)

type SegmenterOptions struct {
	BinaryThreshold   float32 // pixels above become foreground
	MinRegionFraction float64 // regions below this share of the image are folded
	FoldLabel         int32   // label that receives folded regions
}

// Segmenter labels the connected foreground regions of a grayscale image and
// renders the label map with a color map.
type Segmenter struct {
	opts SegmenterOptions
}

func NewSegmenter(opts SegmenterOptions) *Segmenter {
	return &Segmenter{opts: opts}
}

// Labels binarizes gray, labels its 8-connected regions and folds every
// region smaller than round(MinRegionFraction*width*height) pixels into
// FoldLabel. It returns the CV_32S label map and the pixel count of each
// label before folding. The caller closes the label map.
func (s *Segmenter) Labels(gray gocv.Mat) (gocv.Mat, []int, error) {
	if gray.Empty() {
		return gocv.Mat{}, nil, apperrors.NewIOError("cannot segment", ErrEmptyImage)
	}
	if gray.Channels() != 1 {
		return gocv.Mat{}, nil, apperrors.NewValidationError(fmt.Sprintf("expected 1 channel, got %d", gray.Channels()), nil)
	}

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(gray, &binary, s.opts.BinaryThreshold, 255, gocv.ThresholdBinary)

	labels := gocv.NewMat()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()

	regionCount := gocv.ConnectedComponentsWithStatsWithParams(binary, &labels, &stats, &centroids,
		8, gocv.MatTypeCV32S, gocv.CCL_DEFAULT)

	sizes := make([]int, regionCount)
	for label := 0; label < regionCount; label++ {
		sizes[label] = int(stats.GetIntAt(label, int(gocv.CC_STAT_AREA)))
	}

	minSize := int(math.Round(s.opts.MinRegionFraction * float64(gray.Cols()*gray.Rows())))
	folded := make([]bool, regionCount)
	anyFolded := false
	for label, size := range sizes {
		if size < minSize {
			folded[label] = true
			anyFolded = true
		}
	}
	if !anyFolded {
		return labels, sizes, nil
	}

	pixels, err := labels.DataPtrInt32()
	if err != nil {
		labels.Close()
		return gocv.Mat{}, nil, fmt.Errorf("failed to access label map: %w", err)
	}
	for pixelIndex, label := range pixels {
		if folded[label] {
			pixels[pixelIndex] = s.opts.FoldLabel
		}
	}

	return labels, sizes, nil
}

// Segment returns the JET rendering of the folded label map. The caller
// closes the returned Mat.
func (s *Segmenter) Segment(gray gocv.Mat) (gocv.Mat, error) {
	labels, _, err := s.Labels(gray)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer labels.Close()

	return RenderLabels(labels), nil
}

// RenderLabels stretches a label map to 0-255 and applies the JET color map.
// The background stays dark enough to fall below the contour threshold.
func RenderLabels(labels gocv.Mat) gocv.Mat {
	normalized := gocv.NewMat()
	defer normalized.Close()
	gocv.Normalize(labels, &normalized, 0, 255, gocv.NormMinMax)

	scaled := gocv.NewMat()
	defer scaled.Close()
	normalized.ConvertTo(&scaled, gocv.MatTypeCV8U)

	colored := gocv.NewMat()
	gocv.ApplyColorMap(scaled, &colored, gocv.ColormapJet)
	return colored
}
