package shape

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"shape-recognition/pkg/efd"
)

// DefaultThreshold is the largest squared distance still reported as a match.
const DefaultThreshold = 25.0

type Verdict string

const (
	VerdictMatch     Verdict = "match"
	VerdictDifferent Verdict = "different"
)

type Result struct {
	Index     int            `json:"index"`
	Reference efd.Descriptor `json:"reference"`
	Candidate efd.Descriptor `json:"candidate"`
	Distance  float64        `json:"distance"`
	Threshold float64        `json:"threshold"`
	Verdict   Verdict        `json:"verdict"`
}

// SquaredDistance returns the squared Euclidean distance between two
// descriptors. Every call starts from a fresh accumulator.
func SquaredDistance(reference, candidate efd.Descriptor) float64 {
	diff := make([]float64, len(reference))
	floats.SubTo(diff, reference.Slice(), candidate.Slice())
	return floats.Dot(diff, diff)
}

func Classify(distance, threshold float64) Verdict {
	if distance <= threshold {
		return VerdictMatch
	}
	return VerdictDifferent
}

// Evaluate compares the index-th test descriptor against the reference.
func Evaluate(index int, reference, candidate efd.Descriptor, threshold float64) Result {
	distance := SquaredDistance(reference, candidate)
	return Result{
		Index:     index,
		Reference: reference,
		Candidate: candidate,
		Distance:  distance,
		Threshold: threshold,
		Verdict:   Classify(distance, threshold),
	}
}

// Sentence renders the result as a line of the similarity report.
func (r Result) Sentence() string {
	if r.Verdict == VerdictMatch {
		return fmt.Sprintf("The %dth test object is identical as the images in the dataset", r.Index)
	}
	return fmt.Sprintf("The %dth test object is (slightly) different from the dataset images", r.Index)
}
