package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	apperrors "shape-recognition/pkg/errors"
)

// Config holds the parameters of one batch run.
type Config struct {
	DataDir         string // directory holding training and test images
	ResultsDir      string // directory receiving renderings and the report
	TrainingPattern string // file name pattern of training images, one %d verb
	TestPattern     string // file name pattern of test images, one %d verb
	ReportName      string // report file name inside ResultsDir

	TrainingCount int // number of training images (1-based indices)
	TestCount     int // number of test images (1-based indices)
	Harmonics     int // Fourier harmonics per contour

	BinaryThreshold   int     // segmentation intensity threshold (0-255)
	ContourThreshold  int     // re-binarization threshold on the rendered label map (0-255)
	MinRegionFraction float64 // regions smaller than this fraction of the image are folded
	FoldLabel         int     // label receiving folded regions: 0 background, 1 legacy

	SimplifyEpsilon     float64 // polygon simplification tolerance in pixels
	SimilarityThreshold float64 // squared distance at or below which a test object matches

	Workers     int    // images processed concurrently; 1 is strictly sequential
	Diagnostics bool   // write contour and reconstruction drawings
	LogLevel    string // debug, info, warn or error
}

// Default returns the configuration the coin dataset was tuned with.
func Default() Config {
	return Config{
		DataDir:             "data",
		ResultsDir:          "results",
		TrainingPattern:     "coin%d.jpg",
		TestPattern:         "test%d.jpg",
		ReportName:          "Similarity Matrix.txt",
		TrainingCount:       5,
		TestCount:           2,
		Harmonics:           8,
		BinaryThreshold:     150,
		ContourThreshold:    35,
		MinRegionFraction:   0.0001,
		FoldLabel:           0,
		SimplifyEpsilon:     3,
		SimilarityThreshold: 25,
		Workers:             1,
		Diagnostics:         false,
		LogLevel:            "info",
	}
}

// FromEnv overlays EFD_* environment variables onto Default. Values that do
// not parse are ignored.
func FromEnv() Config {
	d := Default()
	return Config{
		DataDir:             getEnvOrDefault("EFD_DATA_DIR", d.DataDir),
		ResultsDir:          getEnvOrDefault("EFD_RESULTS_DIR", d.ResultsDir),
		TrainingPattern:     getEnvOrDefault("EFD_TRAINING_PATTERN", d.TrainingPattern),
		TestPattern:         getEnvOrDefault("EFD_TEST_PATTERN", d.TestPattern),
		ReportName:          getEnvOrDefault("EFD_REPORT_NAME", d.ReportName),
		TrainingCount:       parseIntOrDefault("EFD_TRAINING_COUNT", d.TrainingCount),
		TestCount:           parseIntOrDefault("EFD_TEST_COUNT", d.TestCount),
		Harmonics:           parseIntOrDefault("EFD_HARMONICS", d.Harmonics),
		BinaryThreshold:     parseIntOrDefault("EFD_BINARY_THRESHOLD", d.BinaryThreshold),
		ContourThreshold:    parseIntOrDefault("EFD_CONTOUR_THRESHOLD", d.ContourThreshold),
		MinRegionFraction:   parseFloatOrDefault("EFD_MIN_REGION_FRACTION", d.MinRegionFraction),
		FoldLabel:           parseIntOrDefault("EFD_FOLD_LABEL", d.FoldLabel),
		SimplifyEpsilon:     parseFloatOrDefault("EFD_SIMPLIFY_EPSILON", d.SimplifyEpsilon),
		SimilarityThreshold: parseFloatOrDefault("EFD_SIMILARITY_THRESHOLD", d.SimilarityThreshold),
		Workers:             parseIntOrDefault("EFD_WORKERS", d.Workers),
		Diagnostics:         parseBoolOrDefault("EFD_DIAGNOSTICS", d.Diagnostics),
		LogLevel:            getEnvOrDefault("EFD_LOG_LEVEL", d.LogLevel),
	}
}

// BindFlags registers one flag per field, using the current values of cfg as
// defaults, so flags take precedence over the environment.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory holding training and test images")
	fs.StringVar(&cfg.ResultsDir, "results-dir", cfg.ResultsDir, "directory receiving renderings and the report")
	fs.StringVar(&cfg.TrainingPattern, "training-pattern", cfg.TrainingPattern, "training image name pattern")
	fs.StringVar(&cfg.TestPattern, "test-pattern", cfg.TestPattern, "test image name pattern")
	fs.StringVar(&cfg.ReportName, "report-name", cfg.ReportName, "similarity report file name")
	fs.IntVar(&cfg.TrainingCount, "training-count", cfg.TrainingCount, "number of training images")
	fs.IntVar(&cfg.TestCount, "test-count", cfg.TestCount, "number of test images")
	fs.IntVar(&cfg.Harmonics, "harmonics", cfg.Harmonics, "number of Fourier harmonics")
	fs.IntVar(&cfg.BinaryThreshold, "binary-threshold", cfg.BinaryThreshold, "segmentation intensity threshold (0-255)")
	fs.IntVar(&cfg.ContourThreshold, "contour-threshold", cfg.ContourThreshold, "contour re-binarization threshold (0-255)")
	fs.Float64Var(&cfg.MinRegionFraction, "min-region-fraction", cfg.MinRegionFraction, "regions below this fraction of the image are folded")
	fs.IntVar(&cfg.FoldLabel, "fold-label", cfg.FoldLabel, "label receiving folded regions (0 background, 1 legacy)")
	fs.Float64Var(&cfg.SimplifyEpsilon, "simplify-epsilon", cfg.SimplifyEpsilon, "polygon simplification tolerance in pixels")
	fs.Float64Var(&cfg.SimilarityThreshold, "similarity-threshold", cfg.SimilarityThreshold, "squared distance accepted as a match")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "images processed concurrently")
	fs.BoolVar(&cfg.Diagnostics, "diagnostics", cfg.Diagnostics, "write contour and reconstruction drawings")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.TrainingCount < 1:
		return invalid("training count must be >= 1 (got %d)", c.TrainingCount)
	case c.TestCount < 0:
		return invalid("test count must be >= 0 (got %d)", c.TestCount)
	case c.Harmonics < 1:
		return invalid("harmonics must be >= 1 (got %d)", c.Harmonics)
	case c.BinaryThreshold < 0 || c.BinaryThreshold > 255:
		return invalid("binary threshold must be within 0-255 (got %d)", c.BinaryThreshold)
	case c.ContourThreshold < 0 || c.ContourThreshold > 255:
		return invalid("contour threshold must be within 0-255 (got %d)", c.ContourThreshold)
	case c.MinRegionFraction < 0 || c.MinRegionFraction >= 1:
		return invalid("min region fraction must be within [0, 1) (got %g)", c.MinRegionFraction)
	case c.FoldLabel != 0 && c.FoldLabel != 1:
		return invalid("fold label must be 0 or 1 (got %d)", c.FoldLabel)
	case c.SimplifyEpsilon <= 0:
		return invalid("simplify epsilon must be > 0 (got %g)", c.SimplifyEpsilon)
	case c.SimilarityThreshold < 0:
		return invalid("similarity threshold must be >= 0 (got %g)", c.SimilarityThreshold)
	case c.Workers < 1:
		return invalid("workers must be >= 1 (got %d)", c.Workers)
	case strings.TrimSpace(c.ReportName) == "":
		return invalid("report name must not be empty")
	}
	if err := checkPattern("training pattern", c.TrainingPattern); err != nil {
		return err
	}
	return checkPattern("test pattern", c.TestPattern)
}

// TrainingPath returns the path of the index-th training image (1-based).
func (c *Config) TrainingPath(index int) string {
	return filepath.Join(c.DataDir, fmt.Sprintf(c.TrainingPattern, index))
}

// TestPath returns the path of the index-th test image (1-based).
func (c *Config) TestPath(index int) string {
	return filepath.Join(c.DataDir, fmt.Sprintf(c.TestPattern, index))
}

// ResultPath returns results/<name><suffix>.jpg for an input image.
func (c *Config) ResultPath(imagePath, suffix string) string {
	base := filepath.Base(imagePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(c.ResultsDir, name+suffix+".jpg")
}

// ReportPath returns the location of the similarity report.
func (c *Config) ReportPath() string {
	return filepath.Join(c.ResultsDir, c.ReportName)
}

func checkPattern(field, pattern string) error {
	if strings.Count(pattern, "%d") != 1 || strings.Count(pattern, "%") != 1 {
		return invalid("%s must contain exactly one %%d verb (got %q)", field, pattern)
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return apperrors.NewValidationError(fmt.Sprintf(format, args...), nil)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
