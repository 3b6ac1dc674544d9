package imp

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"
)

func TestAdjust(t *testing.T) {
	src := grayFrom(6, 0, 50, 51, 1000, 60000, 65535)
	dst := image.NewGray16(src.Bounds())

	if err := Adjust(src, dst, 50, 2, -200); err != nil {
		t.Fatal(err)
	}

	want := []uint16{0, 50, 0, 1800, 65535, 65535}
	for x, w := range want {
		if got := dst.Gray16At(x, 0).Y; got != w {
			t.Errorf("pixel %d = %d, want %d", x, got, w)
		}
	}
	if got := src.Gray16At(3, 0).Y; got != 1000 {
		t.Errorf("src was modified: pixel 3 = %d", got)
	}
}

func TestAdjustBounds(t *testing.T) {
	src := image.NewGray16(image.Rect(0, 0, 2, 2))
	dst := image.NewGray16(image.Rect(0, 0, 3, 2))
	if err := Adjust(src, dst, 0, 1, 0); err == nil {
		t.Error("expected an error for mismatched bounds")
	}
}

func TestScale(t *testing.T) {
	tests := []struct {
		v     uint16
		alpha float64
		beta  int
		want  uint16
	}{
		{20000, 0.5, 0, 10000},
		{100, 0.084, 8675, 8683},
		{40000, 2, 0, 65535},
		{100, 1, -500, 0},
		{3, 0.5, 0, 1},
	}
	for _, tt := range tests {
		if got := Scale(tt.v, tt.alpha, tt.beta); got != tt.want {
			t.Errorf("Scale(%d, %v, %d) = %d, want %d", tt.v, tt.alpha, tt.beta, got, tt.want)
		}
	}
}

func TestScaleMonotonic(t *testing.T) {
	for _, alpha := range []float64{0.001, 0.333, 1, 2.5} {
		prev := Scale(0, alpha, -1000)
		for v := 1; v <= 0xffff; v++ {
			got := Scale(uint16(v), alpha, -1000)
			if got < prev {
				t.Fatalf("alpha %v: Scale(%d) = %d < Scale(%d) = %d", alpha, v, got, v-1, prev)
			}
			prev = got
		}
	}
}

func TestSuppress(t *testing.T) {
	src := grayFrom(4, 10, 62258, 62259, 65535)
	dst := image.NewGray16(src.Bounds())
	if err := Suppress(src, dst, 0.95*65535); err != nil {
		t.Fatal(err)
	}

	want := []uint16{10, 62258, 0, 0}
	for x, w := range want {
		if got := dst.Gray16At(x, 0).Y; got != w {
			t.Errorf("pixel %d = %d, want %d", x, got, w)
		}
	}
}

func TestToGray16(t *testing.T) {
	g16 := grayFrom(1, 1234)
	got, err := ToGray16(g16)
	if err != nil || got != g16 {
		t.Errorf("ToGray16(Gray16) = %p, %v, want the same image", got, err)
	}

	g8 := image.NewGray(image.Rect(0, 0, 1, 1))
	g8.SetGray(0, 0, color.Gray{Y: 0xff})
	got, err = ToGray16(g8)
	if err != nil {
		t.Fatal(err)
	}
	if v := got.Gray16At(0, 0).Y; v != 0xffff {
		t.Errorf("promoted value = %#x, want 0xffff", v)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if _, err := ToGray16(rgba); !errors.Is(err, ErrUnsupportedModel) {
		t.Errorf("err = %v, want ErrUnsupportedModel", err)
	}
}

func TestSaveAndRead(t *testing.T) {
	img := grayFrom(3, 0, 30000, 65535)
	dir := t.TempDir()

	for _, name := range []string{"plain.tif", "packed.tiff", "out.png"} {
		for _, c := range []Compression{Uncompressed, Deflate} {
			path := filepath.Join(dir, c.String()+"-"+name)
			if err := Save(path, img, c); err != nil {
				t.Fatalf("Save(%s): %v", path, err)
			}
			back, err := ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile(%s): %v", path, err)
			}
			g, err := ToGray16(back)
			if err != nil {
				t.Fatalf("%s: %v", path, err)
			}
			for x := 0; x < 3; x++ {
				if g.Gray16At(x, 0) != img.Gray16At(x, 0) {
					t.Errorf("%s: pixel %d = %d, want %d", path, x, g.Gray16At(x, 0).Y, img.Gray16At(x, 0).Y)
				}
			}
		}
	}

	if err := Save(filepath.Join(dir, "out.xyz"), img, Uncompressed); err == nil {
		t.Error("expected an error for an unknown extension")
	}
}

func TestReadBytes(t *testing.T) {
	var b bytes.Buffer
	if err := png.Encode(&b, grayFrom(2, 1, 2)); err != nil {
		t.Fatal(err)
	}
	img, err := ReadBytes(b.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := img.(*image.Gray16); !ok {
		t.Errorf("decoded %T, want *image.Gray16", img)
	}
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{"": Uncompressed, "none": Uncompressed, "Deflate": Deflate} {
		got, err := ParseCompression(in)
		if err != nil || got != want {
			t.Errorf("ParseCompression(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
	if _, err := ParseCompression("lzw"); err == nil {
		t.Error("expected an error for lzw")
	}
}
