package cv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"

	apperrors "shape-recognition/pkg/errors"
)

var (
	ErrEmptyImage  = errors.New("image is empty or could not be decoded")
	ErrWriteFailed = errors.New("encoder rejected the image")
)

// LoadGrayscale reads an image as a single 8-bit channel. The caller closes
// the returned Mat; on error nothing needs closing.
func LoadGrayscale(path string) (gocv.Mat, error) {
	if _, err := os.Stat(path); err != nil {
		return gocv.Mat{}, apperrors.NewIOError(fmt.Sprintf("could not load image: %s", path), err)
	}

	img := gocv.IMRead(path, gocv.IMReadGrayScale)
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, apperrors.NewIOError(fmt.Sprintf("could not load image: %s", path), ErrEmptyImage)
	}
	return img, nil
}

// WriteImage encodes img to path, creating the parent directory if needed.
func WriteImage(path string, img gocv.Mat) error {
	if img.Empty() {
		return apperrors.NewIOError(fmt.Sprintf("could not write image: %s", path), ErrEmptyImage)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.NewIOError(fmt.Sprintf("could not create directory for %s", path), err)
	}
	if !gocv.IMWrite(path, img) {
		return apperrors.NewIOError(fmt.Sprintf("could not write image: %s", path), ErrWriteFailed)
	}
	return nil
}
