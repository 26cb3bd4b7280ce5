package main

import (
	"encoding/json"
	"fmt"
	"os"

	"shape-recognition/pkg/config"
	"shape-recognition/pkg/cv"
	"shape-recognition/pkg/logger"
	"shape-recognition/pkg/pipeline"
	"shape-recognition/pkg/shape"

	"github.com/spf13/cobra"
)

var cfg = config.FromEnv()

var rootCmd = &cobra.Command{
	Use:   "shape-recognition",
	Short: "CLI tool for contour-based shape similarity",
	Long:  "Segments images, traces their contours and summarizes each silhouette with a scale invariant Elliptic Fourier descriptor. Test images are compared against the mean descriptor of a training set.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.SetLevel(cfg.LogLevel); err != nil {
			return err
		}
		return cfg.Validate()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Train on the training set and evaluate every test image",
	Long:  "Describes the training images, prints their mean descriptor, then writes one similarity verdict per test image to stdout and to the report file in the results directory.",
	Args:  cobra.NoArgs,
	RunE:  runBatch,
}

var describeCmd = &cobra.Command{
	Use:   "describe [image-path]...",
	Short: "Print the descriptor of one or more images",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDescribe,
}

var compareCmd = &cobra.Command{
	Use:   "compare [image-path]",
	Short: "Compare one image against the training set",
	Long:  "Averages the training descriptors and reports the squared distance and verdict of a single image.",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompare,
}

func init() {
	config.BindFlags(rootCmd.PersistentFlags(), &cfg)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(compareCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	p := pipeline.New(cfg, cv.NewAnalyzer(cfg), os.Stdout)

	summary, err := p.Run()
	if err != nil {
		return fmt.Errorf("shape recognition run failed: %w", err)
	}

	logger.WithField("tests", len(summary.Outcomes)).Info("report written to " + cfg.ReportPath())
	return nil
}

type describeOutput struct {
	Path       string    `json:"path"`
	Descriptor []float64 `json:"descriptor,omitempty"`
	Error      string    `json:"error,omitempty"`
}

func runDescribe(cmd *cobra.Command, args []string) error {
	p := pipeline.New(cfg, cv.NewAnalyzer(cfg), os.Stdout)

	failed := 0
	results := make([]describeOutput, 0, len(args))
	for _, sample := range p.Describe(args) {
		entry := describeOutput{Path: sample.Path}
		if sample.Err != nil {
			entry.Error = sample.Err.Error()
			failed++
		} else {
			entry.Descriptor = sample.Descriptor.Slice()
		}
		results = append(results, entry)
	}

	output, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	fmt.Println(string(output))

	if failed > 0 {
		return fmt.Errorf("%d of %d images: %w", failed, len(args), pipeline.ErrImagesFailed)
	}
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	p := pipeline.New(cfg, cv.NewAnalyzer(cfg), os.Stderr)

	ref, _, err := p.Train()
	if err != nil {
		return fmt.Errorf("failed to build reference: %w", err)
	}

	samples := p.Describe(args)
	if samples[0].Err != nil {
		return fmt.Errorf("failed to describe image: %w", samples[0].Err)
	}

	result := shape.Evaluate(1, ref.Descriptor, samples[0].Descriptor, cfg.SimilarityThreshold)

	output, err := json.MarshalIndent(struct {
		Image     string           `json:"image"`
		Reference *shape.Reference `json:"reference"`
		Result    shape.Result     `json:"result"`
	}{args[0], ref, result}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	fmt.Println(string(output))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
