package norm

import (
	"image"
	"math"

	"github.com/ArnaudCalmettes/histonorm/imp"
	"github.com/montanaflynn/stats"
)

// A Policy derives normalization parameters from an image's statistics.
type Policy interface {
	// Prepare returns the image statistics are computed on and the
	// transform is applied to. It must not modify img.
	Prepare(img *image.Gray16) (*image.Gray16, error)
	// Derive computes alpha and beta once the histogram, valley and
	// threshold of a are known. It may fill in further fields of a.
	Derive(a *Analysis) (Params, error)
}

var policies = map[PolicyKind]func(Config) Policy{
	MedianMatch:    func(c Config) Policy { return medianMatch{c} },
	PeakWidthMatch: func(c Config) Policy { return peakWidthMatch{c} },
}

// round3 rounds half to even at the third decimal.
func round3(v float64) float64 {
	return math.RoundToEven(v*1000) / 1000
}

func roundInt(v float64) int {
	return int(math.RoundToEven(v))
}

type medianMatch struct {
	cfg Config
}

func (m medianMatch) Prepare(img *image.Gray16) (*image.Gray16, error) {
	return img, nil
}

func (m medianMatch) Derive(a *Analysis) (Params, error) {
	fg := imp.Above(a.Working, a.Threshold)
	median, err := stats.Median(fg)
	if err != nil {
		return Params{}, degenerate("no pixel above threshold %d", a.Threshold)
	}
	alpha := round3(m.cfg.DesiredMedian / median)
	if alpha <= 0 {
		return Params{}, degenerate("foreground median %v rounds alpha to zero", median)
	}

	for i := range fg {
		fg[i] *= alpha
	}
	ref := fg
	if m.cfg.MedianReference == ReferenceImage {
		ref = make([]float64, 0, len(fg))
		imp.Each(a.Working, func(v uint16) {
			if int(v) > a.Threshold {
				ref = append(ref, float64(v)*alpha)
			} else {
				ref = append(ref, float64(v))
			}
		})
	}
	refMedian, err := stats.Median(ref)
	if err != nil {
		return Params{}, err
	}

	a.ForegroundMedian = median
	return Params{Alpha: alpha, Beta: roundInt(m.cfg.DesiredMedian - refMedian)}, nil
}

type peakWidthMatch struct {
	cfg Config
}

func (p peakWidthMatch) Prepare(img *image.Gray16) (*image.Gray16, error) {
	dst := image.NewGray16(img.Bounds())
	if err := imp.Suppress(img, dst, p.cfg.ExclusionCutoff()); err != nil {
		return nil, err
	}
	return dst, nil
}

func (p peakWidthMatch) Derive(a *Analysis) (Params, error) {
	idx, loc, ok := a.Histogram.Peak(p.cfg.PeakWindow, p.cfg.PeakOffset)
	if !ok {
		return Params{}, degenerate("no pixel in peak window %v", p.cfg.PeakWindow)
	}
	a.PeakIndex = idx
	a.PeakLocation = loc
	a.HalfWidth = idx + p.cfg.PeakWindow.Start - a.ValleyIndex
	if a.HalfWidth <= 0 {
		return Params{}, degenerate("peak at bin %d is not above valley at bin %d", idx+p.cfg.PeakWindow.Start, a.ValleyIndex)
	}

	ratio := float64(a.HalfWidth * 2 * a.Histogram.Bins())
	alpha := round3(p.cfg.DesiredStd() / ratio)
	if alpha <= 0 {
		return Params{}, degenerate("peak half-width of %d bins rounds alpha to zero", a.HalfWidth)
	}
	beta := roundInt(p.cfg.DesiredMedian - loc*alpha - float64(a.Threshold))
	return Params{Alpha: alpha, Beta: beta}, nil
}
