package imp

import (
	"errors"
	"image"
	"image/color"

	"gonum.org/v1/gonum/floats"
)

// Black is the value suppressed pixels are set to.
var Black = color.Gray16{0}

// Valley finds the least populated bin within w, which marks the boundary
// between the background and the foreground peaks. Ties go to the lowest
// index. It returns the absolute index of that bin along with the
// background threshold, the truncated edge at index-1.
//
// w.Start must be at least 1: bin 0 usually holds a spike of true-zero
// pixels that would otherwise always win.
func (h Histogram) Valley(w Window) (index, threshold int) {
	index = w.Start + floats.MinIdx(h.Counts[w.Start:w.End])
	return index, int(h.Edges[index-1])
}

// Peak finds the most populated bin within w. Ties go to the lowest index.
// The returned index is relative to w.Start, and the peak location is the
// edge at index+offset. ok is false when the window holds no sample.
func (h Histogram) Peak(w Window, offset int) (index int, location float64, ok bool) {
	counts := h.Counts[w.Start:w.End]
	index = floats.MaxIdx(counts)
	if counts[index] == 0 {
		return index, 0, false
	}
	return index, h.Edges[index+offset], true
}

// Suppress zeroes every pixel of src strictly brighter than cutoff.
func Suppress(src, dst *image.Gray16, cutoff float64) error {
	if src.Bounds() != dst.Bounds() {
		return errors.New("src and dst should have the same bounds")
	}

	for y := src.Bounds().Min.Y; y < src.Bounds().Max.Y; y++ {
		for x := src.Bounds().Min.X; x < src.Bounds().Max.X; x++ {
			c := src.Gray16At(x, y)
			if float64(c.Y) > cutoff {
				dst.SetGray16(x, y, Black)
			} else {
				dst.SetGray16(x, y, c)
			}
		}
	}
	return nil
}
