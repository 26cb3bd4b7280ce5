package pipeline

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/sirupsen/logrus"

	"shape-recognition/pkg/config"
	"shape-recognition/pkg/efd"
	apperrors "shape-recognition/pkg/errors"
	"shape-recognition/pkg/logger"
	"shape-recognition/pkg/shape"
)

// ImageAnalyzer extracts silhouettes from image files and draws contour
// diagnostics. *cv.Analyzer implements it.
type ImageAnalyzer interface {
	Extract(imagePath, renderPath string) (*shape.Silhouette, error)
	RenderContours(path string, bounds image.Rectangle, contours []efd.Contour) error
}

type Role string

const (
	RoleTraining Role = "training"
	RoleTest     Role = "test"
	RoleAdHoc    Role = "describe"
)

// Sample is the outcome of processing one image. Err is set when the image
// produced no descriptor.
type Sample struct {
	Role       Role           `json:"role"`
	Index      int            `json:"index"`
	Path       string         `json:"path"`
	Descriptor efd.Descriptor `json:"descriptor"`
	Err        error          `json:"-"`
}

// Outcome pairs a test sample with its verdict. Result is nil when the
// sample failed.
type Outcome struct {
	Sample
	Result *shape.Result `json:"result,omitempty"`
}

// Summary collects everything a batch run produced.
type Summary struct {
	Reference *shape.Reference `json:"reference"`
	Training  []Sample         `json:"training"`
	Outcomes  []Outcome        `json:"outcomes"`
}

// Failures counts the images that produced no descriptor.
func (s *Summary) Failures() int {
	n := 0
	for _, sample := range s.Training {
		if sample.Err != nil {
			n++
		}
	}
	for _, o := range s.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

var ErrImagesFailed = errors.New("some images could not be processed")

type Pipeline struct {
	cfg      config.Config
	analyzer ImageAnalyzer
	out      io.Writer
	log      *logrus.Entry
}

// New creates a pipeline. The mean descriptor and the report are mirrored to
// out.
func New(cfg config.Config, analyzer ImageAnalyzer, out io.Writer) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		analyzer: analyzer,
		out:      out,
		log:      logger.WithField("component", "pipeline"),
	}
}

// Train describes every training image and averages the descriptors of the
// ones that succeeded.
func (p *Pipeline) Train() (*shape.Reference, []Sample, error) {
	paths := make([]string, p.cfg.TrainingCount)
	for i := range paths {
		paths[i] = p.cfg.TrainingPath(i + 1)
	}
	samples := p.processAll(RoleTraining, paths)

	agg := shape.NewAggregator()
	for i := range samples {
		if samples[i].Err != nil {
			continue
		}
		if err := agg.Add(samples[i].Descriptor); err != nil {
			samples[i].Err = err
			p.logFailure(samples[i])
		}
	}

	ref, err := agg.Reference()
	if err != nil {
		return nil, samples, fmt.Errorf("no training image produced a descriptor: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"images":     ref.Count,
		"descriptor": ref.Descriptor.String(),
	}).Info("training complete")

	return ref, samples, nil
}

// Evaluate compares every test image against the reference. Each comparison
// starts from a fresh distance.
func (p *Pipeline) Evaluate(ref *shape.Reference) []Outcome {
	paths := make([]string, p.cfg.TestCount)
	for i := range paths {
		paths[i] = p.cfg.TestPath(i + 1)
	}
	samples := p.processAll(RoleTest, paths)

	outcomes := make([]Outcome, len(samples))
	for i, sample := range samples {
		outcomes[i].Sample = sample
		if sample.Err != nil {
			continue
		}
		result := shape.Evaluate(sample.Index, ref.Descriptor, sample.Descriptor, p.cfg.SimilarityThreshold)
		outcomes[i].Result = &result

		p.log.WithFields(logrus.Fields{
			"image":    sample.Path,
			"distance": result.Distance,
			"verdict":  result.Verdict,
		}).Debug("test image evaluated")
	}
	return outcomes
}

// Run trains, evaluates and writes the similarity report. It returns
// ErrImagesFailed, wrapped, when any image was skipped.
func (p *Pipeline) Run() (*Summary, error) {
	ref, training, err := p.Train()
	if err != nil {
		return &Summary{Training: training}, err
	}

	fmt.Fprintf(p.out, "Mean descriptor: %s\n", ref.Descriptor)

	summary := &Summary{
		Reference: ref,
		Training:  training,
		Outcomes:  p.Evaluate(ref),
	}

	if err := WriteReport(p.cfg.ReportPath(), p.out, summary.Outcomes); err != nil {
		return summary, err
	}

	if n := summary.Failures(); n > 0 {
		return summary, fmt.Errorf("%d of %d images: %w", n, len(summary.Training)+len(summary.Outcomes), ErrImagesFailed)
	}
	return summary, nil
}

// Describe computes the descriptor of arbitrary images.
func (p *Pipeline) Describe(paths []string) []Sample {
	return p.processAll(RoleAdHoc, paths)
}

// processAll keeps the input order regardless of the worker count.
func (p *Pipeline) processAll(role Role, paths []string) []Sample {
	samples := make([]Sample, len(paths))

	if p.cfg.Workers <= 1 {
		for i, path := range paths {
			samples[i] = p.process(role, i+1, path)
		}
		return samples
	}

	pool := NewWorkerPool(p.cfg.Workers)
	pool.Start()
	defer pool.Close()

	for i, path := range paths {
		pool.Submit(func() {
			samples[i] = p.process(role, i+1, path)
		})
	}
	pool.Wait()

	return samples
}

func (p *Pipeline) process(role Role, index int, path string) Sample {
	sample := Sample{Role: role, Index: index, Path: path}
	log := p.log.WithFields(logrus.Fields{"image": path, "role": role})

	silhouette, err := p.analyzer.Extract(path, p.cfg.ResultPath(path, ""))
	if err != nil {
		sample.Err = err
		p.logFailure(sample)
		return sample
	}

	desc, fit, err := silhouette.Descriptor(p.cfg.Harmonics)
	if err != nil {
		sample.Err = fmt.Errorf("%s: %w", path, err)
		p.logFailure(sample)
		return sample
	}
	sample.Descriptor = desc

	log.WithFields(logrus.Fields{
		"contours":   len(silhouette.Contours),
		"qualifying": len(fit.Qualifying),
		"descriptor": desc.String(),
	}).Debug("image described")

	if p.cfg.Diagnostics {
		p.writeDiagnostics(silhouette, fit)
	}
	return sample
}

// writeDiagnostics draws the traced contours and their reconstructions.
// Failures are logged only.
func (p *Pipeline) writeDiagnostics(s *shape.Silhouette, fit *efd.Fit) {
	drawings := []struct {
		suffix   string
		contours []efd.Contour
	}{
		{"_contours", s.Contours},
		{"_reconstruction", fit.Reconstruct()},
	}

	for _, d := range drawings {
		path := p.cfg.ResultPath(s.Path, d.suffix)
		if err := p.analyzer.RenderContours(path, s.Bounds, d.contours); err != nil {
			p.log.WithError(err).WithField("path", path).Warn("failed to write diagnostic drawing")
		}
	}
}

func (p *Pipeline) logFailure(s Sample) {
	p.log.WithFields(logrus.Fields{
		"image":      s.Path,
		"role":       s.Role,
		"error_type": apperrors.TypeOf(s.Err),
	}).WithError(s.Err).Warn("image skipped")
}
