package imp

import (
	"errors"
	"fmt"
	"image"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrEmptyImage is returned when an image has no pixel.
	ErrEmptyImage = errors.New("image is empty")
	// ErrFlatImage is returned when every pixel of an image has the same value.
	ErrFlatImage = errors.New("image has a single intensity value")
)

// Histogram counts the samples of an image in equal-width bins spanning the
// image's own intensity range (not the theoretical 16-bit range).
//
// Bins are half-open, [Edges[i], Edges[i+1]), except the last one which also
// holds the maximum value.
type Histogram struct {
	Counts []float64
	Edges  []float64
}

// Window is a half-open range of bin indices.
type Window struct {
	Start int
	End   int
}

// Len returns the number of bins in the window.
func (w Window) Len() int {
	return w.End - w.Start
}

func (w Window) String() string {
	return fmt.Sprintf("[%d, %d)", w.Start, w.End)
}

// NewHistogram computes the histogram of img with the given number of bins.
func NewHistogram(img *image.Gray16, bins int) (Histogram, error) {
	if bins < 1 {
		return Histogram{}, fmt.Errorf("invalid bin count %d", bins)
	}
	lo, hi, ok := Range(img)
	if !ok {
		return Histogram{}, ErrEmptyImage
	}
	if lo == hi {
		return Histogram{}, ErrFlatImage
	}

	h := Histogram{
		Counts: make([]float64, bins),
		Edges:  floats.Span(make([]float64, bins+1), float64(lo), float64(hi)),
	}
	norm := float64(bins) / float64(hi-lo)
	Each(img, func(v uint16) {
		h.Counts[h.bin(float64(v), norm)]++
	})
	return h, nil
}

// Bins returns the number of bins.
func (h Histogram) Bins() int {
	return len(h.Counts)
}

// bin locates the bin holding v. The first guess is corrected against the
// actual edges so that values sitting on an edge land in the upper bin.
func (h Histogram) bin(v, norm float64) int {
	last := len(h.Counts) - 1
	i := int((v - h.Edges[0]) * norm)
	if i > last {
		i = last
	}
	if v < h.Edges[i] {
		i--
	} else if i != last && v >= h.Edges[i+1] {
		i++
	}
	return i
}
