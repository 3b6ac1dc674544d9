package norm

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ArnaudCalmettes/histonorm/imp"
	"github.com/texttheater/golang-levenshtein/levenshtein"
	"gonum.org/v1/gonum/stat/distuv"
)

// PolicyKind names a normalization policy.
type PolicyKind string

// Available policies.
const (
	// MedianMatch rescales the foreground so its median lands on the
	// desired median.
	MedianMatch PolicyKind = "median"
	// PeakWidthMatch rescales the foreground so the width of its peak
	// matches a desired spread.
	PeakWidthMatch PolicyKind = "peakwidth"
)

// Reference selects the samples the MedianMatch offset is computed from.
type Reference string

// Available median references.
const (
	// ReferenceForeground uses the rescaled foreground pixels only.
	ReferenceForeground Reference = "foreground"
	// ReferenceImage uses the whole rescaled image, background included.
	ReferenceImage Reference = "image"
)

const maxIntensity = math.MaxUint16

// Config holds every tunable of the engine.
type Config struct {
	Policy          PolicyKind
	MedianReference Reference

	DesiredMedian float64
	DesiredWidth  float64

	// Pixels brighter than ExclusionFraction*65535 are zeroed before
	// PeakWidthMatch computes anything.
	ExclusionFraction float64
	// Upper bound of the region of interest, as a fraction of 65535.
	// Only reported, the engine doesn't use it.
	ROIIntensityFraction float64
	// Share of the desired width covered by the central quantile range.
	WidthFraction float64
	// Normal quantile the desired width is measured at.
	Quantile float64

	Bins int
	// Searched for the background valley. Bin 0 is left out since it
	// holds the true-zero spike.
	ValleyWindow imp.Window
	// Searched for the foreground peak.
	PeakWindow imp.Window
	// The peak location is the edge at (relative peak index + PeakOffset),
	// an empirical approximation of the peak center.
	PeakOffset int
}

// DefaultConfig returns the historical parameter set.
func DefaultConfig() Config {
	return Config{
		Policy:               MedianMatch,
		MedianReference:      ReferenceForeground,
		DesiredMedian:        10000,
		DesiredWidth:         30000,
		ExclusionFraction:    0.95,
		ROIIntensityFraction: 0.5,
		WidthFraction:        0.90,
		Quantile:             0.95,
		Bins:                 256,
		ValleyWindow:         imp.Window{Start: 1, End: 12},
		PeakWindow:           imp.Window{Start: 12, End: 255},
		PeakOffset:           10,
	}
}

// ExclusionCutoff is the intensity above which PeakWidthMatch zeroes pixels.
func (c Config) ExclusionCutoff() float64 {
	return c.ExclusionFraction * maxIntensity
}

// MaxROIIntensity is the region-of-interest bound in intensity units.
func (c Config) MaxROIIntensity() int {
	return int(math.RoundToEven(c.ROIIntensityFraction * maxIntensity))
}

// DesiredStd is the standard deviation a normal peak spanning
// WidthFraction*DesiredWidth between its two Quantile tails would have.
func (c Config) DesiredStd() float64 {
	z := round3(distuv.UnitNormal.Quantile(c.Quantile))
	return c.DesiredWidth * c.WidthFraction / (2 * z)
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if _, ok := policies[c.Policy]; !ok {
		if _, err := ParsePolicy(string(c.Policy)); err != nil {
			return err
		}
		return &ConfigError{"policy", fmt.Sprintf("%q should be lowercase", c.Policy)}
	}
	switch c.MedianReference {
	case ReferenceForeground, ReferenceImage:
	default:
		return &ConfigError{"median reference", fmt.Sprintf("unknown value %q", c.MedianReference)}
	}

	positives := []struct {
		name string
		v    float64
	}{
		{"desired median", c.DesiredMedian},
		{"desired width", c.DesiredWidth},
	}
	for _, p := range positives {
		if !(p.v > 0) {
			return &ConfigError{p.name, fmt.Sprintf("%v is not positive", p.v)}
		}
	}

	fractions := []struct {
		name string
		v    float64
	}{
		{"exclusion fraction", c.ExclusionFraction},
		{"roi intensity fraction", c.ROIIntensityFraction},
		{"width fraction", c.WidthFraction},
	}
	for _, f := range fractions {
		if !(f.v > 0 && f.v <= 1) {
			return &ConfigError{f.name, fmt.Sprintf("%v is outside (0, 1]", f.v)}
		}
	}
	if !(c.Quantile > 0.5 && c.Quantile < 1) {
		return &ConfigError{"quantile", fmt.Sprintf("%v is outside (0.5, 1)", c.Quantile)}
	}

	if c.Bins < 2 {
		return &ConfigError{"bin count", fmt.Sprintf("%d is lower than 2", c.Bins)}
	}
	if c.ValleyWindow.Start < 1 || c.ValleyWindow.Len() < 1 || c.ValleyWindow.End > c.Bins {
		return &ConfigError{"valley window", fmt.Sprintf("%v must be non-empty, within [1, %d)", c.ValleyWindow, c.Bins)}
	}
	if c.PeakWindow.Start < 0 || c.PeakWindow.Len() < 1 || c.PeakWindow.End > c.Bins {
		return &ConfigError{"peak window", fmt.Sprintf("%v must be non-empty, within [0, %d)", c.PeakWindow, c.Bins)}
	}
	if c.PeakOffset < 0 || c.PeakWindow.Len()-1+c.PeakOffset > c.Bins {
		return &ConfigError{"peak offset", fmt.Sprintf("%d moves the peak location past the last edge", c.PeakOffset)}
	}
	return nil
}

// Policies returns the names of the registered policies, sorted.
func Policies() []string {
	names := make([]string, 0, len(policies))
	for k := range policies {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return names
}

// ParsePolicy resolves a policy name. Unknown names get a suggestion when
// a registered name is close enough.
func ParsePolicy(name string) (PolicyKind, error) {
	kind := PolicyKind(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := policies[kind]; ok {
		return kind, nil
	}

	msg := fmt.Sprintf("unknown policy %q (available: %s)", name, strings.Join(Policies(), ", "))
	if best, ok := closestPolicy(string(kind)); ok {
		msg = fmt.Sprintf("unknown policy %q, did you mean %q?", name, best)
	}
	return "", &ConfigError{"policy", msg}
}

func closestPolicy(name string) (best string, ok bool) {
	score := len(name)/2 + 1
	for _, p := range Policies() {
		d := levenshtein.DistanceForStrings([]rune(name), []rune(p), levenshtein.DefaultOptions)
		if d < score {
			best, score, ok = p, d, true
		}
	}
	return
}
