package imp

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// ErrUnsupportedModel is returned for images that are not single-channel.
var ErrUnsupportedModel = errors.New("unsupported color model")

// ToGray16 returns src as a 16-bit grayscale picture. 16-bit images are
// returned as is, 8-bit grayscale ones are promoted to the 16-bit range.
// Color images are rejected.
func ToGray16(src image.Image) (*image.Gray16, error) {
	switch img := src.(type) {
	case *image.Gray16:
		return img, nil
	case *image.Gray:
		bounds := img.Bounds()
		dst := image.NewGray16(bounds)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				dst.Set(x, y, color.Gray16Model.Convert(img.GrayAt(x, y)))
			}
		}
		return dst, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedModel, src)
}

// Range returns the lowest and highest sample of img. ok is false when
// the image is empty.
func Range(img *image.Gray16) (lo, hi uint16, ok bool) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return 0, 0, false
	}
	lo, hi = 0xffff, 0
	Each(img, func(v uint16) {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	})
	return lo, hi, true
}

// Each calls fn for every sample of img, in row-major order.
func Each(img *image.Gray16, fn func(uint16)) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			fn(img.Gray16At(x, y).Y)
		}
	}
}

// Above returns the samples strictly greater than level, as floats.
func Above(img *image.Gray16, level int) []float64 {
	res := make([]float64, 0, img.Bounds().Dx()*img.Bounds().Dy())
	Each(img, func(v uint16) {
		if int(v) > level {
			res = append(res, float64(v))
		}
	})
	return res
}
