package imp

import (
	"errors"
	"image"
	"math"
)

// Adjust rescales the foreground of src (pixels above threshold) by alpha,
// shifts it by beta and clips the result to the 16-bit range. Background
// pixels are copied untouched.
func Adjust(src, dst *image.Gray16, threshold int, alpha float64, beta int) error {
	if src.Bounds() != dst.Bounds() {
		return errors.New("src and dst should have the same bounds")
	}

	rect := src.Bounds()
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			c := src.Gray16At(x, y)
			if int(c.Y) > threshold {
				c.Y = Scale(c.Y, alpha, beta)
			}
			dst.SetGray16(x, y, c)
		}
	}
	return nil
}

// Scale maps a single foreground sample: v*alpha + beta, clamped to
// [0, 65535] then truncated.
func Scale(v uint16, alpha float64, beta int) uint16 {
	f := float64(v)*alpha + float64(beta)
	return uint16(math.Max(0, math.Min(f, math.MaxUint16)))
}
