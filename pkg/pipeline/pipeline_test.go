package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"shape-recognition/pkg/config"
	"shape-recognition/pkg/efd"
	apperrors "shape-recognition/pkg/errors"
	"shape-recognition/pkg/shape"
)

type fakeAnalyzer struct {
	mu       sync.Mutex
	contours map[string][]efd.Contour // keyed by file name
	rendered []string
}

func (f *fakeAnalyzer) Extract(imagePath, renderPath string) (*shape.Silhouette, error) {
	contours, ok := f.contours[filepath.Base(imagePath)]
	if !ok {
		return nil, apperrors.NewIOError("could not load image "+imagePath, os.ErrNotExist)
	}
	return &shape.Silhouette{Path: imagePath, Bounds: image.Rect(0, 0, 300, 300), Contours: contours}, nil
}

func (f *fakeAnalyzer) RenderContours(path string, bounds image.Rectangle, contours []efd.Contour) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rendered = append(f.rendered, filepath.Base(path))
	return nil
}

func lobedContour(n, scale int) efd.Contour {
	contour := make(efd.Contour, n)
	for i := range contour {
		theta := 2 * math.Pi * float64(i) / float64(n)
		r := 30 + 6*math.Cos(3*theta)
		contour[i] = image.Pt(
			int(math.Round(50+r*math.Cos(theta)))*scale,
			int(math.Round(50+1.4*r*math.Sin(theta)))*scale,
		)
	}
	return contour
}

func squareContour() efd.Contour {
	return efd.Contour{{0, 0}, {5, 0}, {10, 0}, {10, 5}, {10, 10}, {5, 10}, {0, 10}, {0, 5}}
}

func testConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.DataDir = "data"
	cfg.ResultsDir = t.TempDir()
	return cfg
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}

func TestTrain_SkipsFailedImages(t *testing.T) {
	cfg := testConfig(t)
	cfg.TrainingCount = 3
	analyzer := &fakeAnalyzer{contours: map[string][]efd.Contour{
		"coin1.jpg": {lobedContour(48, 1)},
		"coin3.jpg": {lobedContour(48, 2)},
	}}

	ref, samples, err := New(cfg, analyzer, &bytes.Buffer{}).Train()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if ref.Count != 2 {
		t.Errorf("Expected 2 descriptors in the reference, got %d", ref.Count)
	}
	if len(samples) != 3 {
		t.Fatalf("Expected 3 samples, got %d", len(samples))
	}
	if !apperrors.IsType(samples[1].Err, apperrors.ErrorTypeIO) {
		t.Errorf("Expected I/O error for coin2, got %v", samples[1].Err)
	}
	if samples[0].Err != nil || samples[2].Err != nil {
		t.Errorf("Expected coin1 and coin3 to succeed, got %v and %v", samples[0].Err, samples[2].Err)
	}

	want, err := efd.Compute([]efd.Contour{lobedContour(48, 1)}, cfg.Harmonics)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for i := range want {
		if !closeTo(ref.Descriptor[i], want[i]) {
			t.Errorf("Expected component %d to be %g, got %g", i, want[i], ref.Descriptor[i])
		}
	}
}

func TestTrain_AllFailed(t *testing.T) {
	cfg := testConfig(t)
	analyzer := &fakeAnalyzer{contours: map[string][]efd.Contour{
		"coin1.jpg": {},
	}}

	ref, samples, err := New(cfg, analyzer, &bytes.Buffer{}).Train()
	if err == nil {
		t.Fatal("Expected error when no training image succeeds")
	}
	if ref != nil {
		t.Errorf("Expected nil reference, got %+v", ref)
	}
	if !errors.Is(err, shape.ErrNoDescriptors) {
		t.Errorf("Expected ErrNoDescriptors, got %v", err)
	}
	if !apperrors.IsType(samples[0].Err, apperrors.ErrorTypeNumericDomain) {
		t.Errorf("Expected numeric domain error for an image without contours, got %v", samples[0].Err)
	}
}

func TestRun_Report(t *testing.T) {
	cfg := testConfig(t)
	cfg.TrainingCount = 2
	cfg.TestCount = 3
	analyzer := &fakeAnalyzer{contours: map[string][]efd.Contour{
		"coin1.jpg": {lobedContour(48, 1)},
		"coin2.jpg": {lobedContour(48, 2)},
		"test1.jpg": {squareContour()},
		"test2.jpg": {lobedContour(48, 3)},
	}}

	var out bytes.Buffer
	summary, err := New(cfg, analyzer, &out).Run()
	if !errors.Is(err, ErrImagesFailed) {
		t.Fatalf("Expected ErrImagesFailed for the missing test image, got %v", err)
	}
	if summary.Failures() != 1 {
		t.Errorf("Expected 1 failure, got %d", summary.Failures())
	}

	// A far candidate evaluated first must not leak into the next verdict.
	if summary.Outcomes[0].Result.Verdict != shape.VerdictDifferent {
		t.Errorf("Expected test1 to differ, got %s (distance %g)", summary.Outcomes[0].Result.Verdict, summary.Outcomes[0].Result.Distance)
	}
	if summary.Outcomes[1].Result.Verdict != shape.VerdictMatch {
		t.Errorf("Expected test2 to match, got %s (distance %g)", summary.Outcomes[1].Result.Verdict, summary.Outcomes[1].Result.Distance)
	}
	if summary.Outcomes[2].Result != nil {
		t.Errorf("Expected no result for the missing test3")
	}

	wantLines := []string{
		"The 1th test object is (slightly) different from the dataset images",
		"The 2th test object is identical as the images in the dataset",
	}

	data, err := os.ReadFile(cfg.ReportPath())
	if err != nil {
		t.Fatalf("Expected report file: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 report lines, got %d: %q", len(lines), lines)
	}
	for i, want := range wantLines {
		if lines[i] != want {
			t.Errorf("Expected line %d to be %q, got %q", i+1, want, lines[i])
		}
	}
	if !strings.HasPrefix(lines[2], "The 3th test object could not be evaluated: ") {
		t.Errorf("Expected failure line for test3, got %q", lines[2])
	}

	if !strings.HasPrefix(out.String(), "Mean descriptor: [") {
		t.Errorf("Expected mean descriptor first on stdout, got %q", out.String())
	}
	if !strings.HasSuffix(out.String(), string(data)) {
		t.Errorf("Expected report mirrored to stdout, got %q", out.String())
	}
}

func TestRun_NoFailures(t *testing.T) {
	cfg := testConfig(t)
	cfg.TrainingCount = 1
	cfg.TestCount = 1
	analyzer := &fakeAnalyzer{contours: map[string][]efd.Contour{
		"coin1.jpg": {lobedContour(48, 1)},
		"test1.jpg": {lobedContour(48, 1)},
	}}

	summary, err := New(cfg, analyzer, &bytes.Buffer{}).Run()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if summary.Outcomes[0].Result.Distance != 0 {
		t.Errorf("Expected distance 0 for an identical image, got %g", summary.Outcomes[0].Result.Distance)
	}
}

func TestEvaluate_WorkersKeepOrder(t *testing.T) {
	contours := map[string][]efd.Contour{
		"coin1.jpg": {lobedContour(48, 1)},
	}
	for i, c := range []efd.Contour{squareContour(), lobedContour(48, 2), lobedContour(48, 4), squareContour(), lobedContour(40, 1), lobedContour(48, 3)} {
		contours[fmt.Sprintf("test%d.jpg", i+1)] = []efd.Contour{c}
	}

	run := func(workers int) []Outcome {
		cfg := testConfig(t)
		cfg.TrainingCount = 1
		cfg.TestCount = 6
		cfg.Workers = workers
		p := New(cfg, &fakeAnalyzer{contours: contours}, &bytes.Buffer{})
		ref, _, err := p.Train()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		return p.Evaluate(ref)
	}

	sequential := run(1)
	concurrent := run(4)

	for i := range sequential {
		if concurrent[i].Index != i+1 {
			t.Errorf("Expected outcome %d to have index %d, got %d", i, i+1, concurrent[i].Index)
		}
		if concurrent[i].Descriptor != sequential[i].Descriptor {
			t.Errorf("Expected outcome %d to match the sequential run", i)
		}
	}
}

func TestDiagnostics(t *testing.T) {
	cfg := testConfig(t)
	cfg.Diagnostics = true
	analyzer := &fakeAnalyzer{contours: map[string][]efd.Contour{
		"coin1.jpg": {lobedContour(48, 1)},
	}}

	samples := New(cfg, analyzer, &bytes.Buffer{}).Describe([]string{"data/coin1.jpg"})
	if samples[0].Err != nil {
		t.Fatalf("Unexpected error: %v", samples[0].Err)
	}

	want := []string{"coin1_contours.jpg", "coin1_reconstruction.jpg"}
	if len(analyzer.rendered) != len(want) {
		t.Fatalf("Expected %d drawings, got %v", len(want), analyzer.rendered)
	}
	for i := range want {
		if analyzer.rendered[i] != want[i] {
			t.Errorf("Expected drawing %q, got %q", want[i], analyzer.rendered[i])
		}
	}
}

func TestReportLine_Failure(t *testing.T) {
	o := Outcome{Sample: Sample{Index: 4, Err: errors.New("boom")}}
	if got := ReportLine(o); got != "The 4th test object could not be evaluated: boom" {
		t.Errorf("Unexpected line %q", got)
	}
}
