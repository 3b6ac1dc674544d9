// Package norm normalizes the foreground intensity of 16-bit grayscale
// images so that acquisitions made with different exposure or gain become
// comparable.
//
// The background/foreground boundary is the least populated bin in the low
// end of the image histogram. Background pixels are passed through as is;
// foreground pixels are scaled by alpha and shifted by beta, both derived
// by the configured Policy.
package norm

import (
	"errors"
	"fmt"
	"image"

	"github.com/ArnaudCalmettes/histonorm/imp"
)

// Params are the normalization parameters of one image.
type Params struct {
	Alpha float64
	Beta  int
}

func (p Params) String() string {
	return fmt.Sprintf("alpha=%.3f beta=%d", p.Alpha, p.Beta)
}

// Analysis holds the intermediate statistics of one image.
type Analysis struct {
	// Image the statistics were computed on (suppressed for PeakWidthMatch).
	Working   *image.Gray16
	Histogram imp.Histogram

	ValleyIndex int
	Threshold   int

	// Set by MedianMatch.
	ForegroundMedian float64

	// Set by PeakWidthMatch. PeakIndex is relative to the peak window.
	PeakIndex    int
	PeakLocation float64
	HalfWidth    int

	Params Params
}

// Engine normalizes images according to a Config. It holds no mutable
// state and can be shared between goroutines.
type Engine struct {
	cfg    Config
	policy Policy
}

// New validates cfg and returns an engine using the policy it selects.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:    cfg,
		policy: policies[cfg.Policy](cfg),
	}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Analyze computes the histogram, threshold and parameters of img without
// transforming it.
func (e *Engine) Analyze(img *image.Gray16) (*Analysis, error) {
	work, err := e.policy.Prepare(img)
	if err != nil {
		return nil, err
	}

	h, err := imp.NewHistogram(work, e.cfg.Bins)
	switch {
	case errors.Is(err, imp.ErrFlatImage):
		lo, _, _ := imp.Range(work)
		return nil, degenerate("every pixel has value %d", lo)
	case errors.Is(err, imp.ErrEmptyImage):
		return nil, degenerate("image has no pixel")
	case err != nil:
		return nil, err
	}

	a := &Analysis{Working: work, Histogram: h}
	// The threshold is an edge below the last bin, so the brightest pixel
	// is always foreground.
	a.ValleyIndex, a.Threshold = h.Valley(e.cfg.ValleyWindow)

	if a.Params, err = e.policy.Derive(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Normalize returns a normalized copy of img along with the statistics it
// was derived from. img is left untouched.
func (e *Engine) Normalize(img *image.Gray16) (*image.Gray16, *Analysis, error) {
	a, err := e.Analyze(img)
	if err != nil {
		return nil, nil, err
	}
	dst := image.NewGray16(a.Working.Bounds())
	if err := imp.Adjust(a.Working, dst, a.Threshold, a.Params.Alpha, a.Params.Beta); err != nil {
		return nil, nil, err
	}
	return dst, a, nil
}
