package imp

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/tiff"
)

// Compression selects how TIFF outputs are compressed.
type Compression int

// Supported TIFF compressions.
const (
	Uncompressed Compression = iota
	Deflate
)

// ParseCompression parses "none" or "deflate".
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return Uncompressed, nil
	case "deflate":
		return Deflate, nil
	}
	return Uncompressed, fmt.Errorf("unknown tiff compression %q", s)
}

func (c Compression) String() string {
	if c == Deflate {
		return "deflate"
	}
	return "none"
}

// ReadFile reads an image from a file.
func ReadFile(filename string) (image.Image, error) {
	return imaging.Open(filename)
}

// ReadBytes reads an image from raw bytes.
func ReadBytes(data []byte) (image.Image, error) {
	return Read(bytes.NewReader(data))
}

// Read reads an image from a io.Reader.
func Read(r io.Reader) (image.Image, error) {
	return imaging.Decode(r)
}

// Save writes an image to a file. Image format is decided based upon its
// extension: TIFF (compressed as requested) or PNG, both of which keep
// 16-bit samples.
func Save(filename string, img image.Image, c Compression) error {
	format, err := imaging.FormatFromFilename(filename)
	if err != nil {
		return err
	}

	switch format {
	case imaging.TIFF:
		return saveTIFF(filename, img, c)
	case imaging.PNG:
		return imaging.Save(img, filename)
	}
	return fmt.Errorf("unsupported output format %v", format)
}

func saveTIFF(filename string, img image.Image, c Compression) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	opts := &tiff.Options{Compression: tiff.Uncompressed}
	if c == Deflate {
		opts = &tiff.Options{Compression: tiff.Deflate, Predictor: true}
	}
	return tiff.Encode(f, img, opts)
}
