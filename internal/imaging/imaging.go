// Package imaging resizes and recompresses captured photos before they are
// stored.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
)

// DefaultWidth is the width captured photos are scaled down to.
const DefaultWidth = 1024

// DefaultQuality is the JPEG quality captured photos are re-encoded with.
const DefaultQuality = 70

// allowedMIME lists the accepted input MIME types.
var allowedMIME = []string{"image/jpeg", "image/png"}

// Options controls Process and ResizeFile. Zero values select the defaults.
type Options struct {
	Width   int
	Quality int
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	return o
}

// Process reads image data, validates the format by sniffing bytes,
// scales it down to opts.Width (keeping the aspect ratio) and re-encodes it
// as JPEG. Images already narrower than opts.Width keep their size.
func Process(r io.Reader, opts Options) ([]byte, error) {
	opts = opts.withDefaults()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	detected := mimetype.Detect(data)
	if !allowed(detected) {
		return nil, fmt.Errorf("unsupported image format: %s (only JPEG and PNG accepted)", detected.String())
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = scaleToWidth(img, opts.Width)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

func allowed(m *mimetype.MIME) bool {
	for _, a := range allowedMIME {
		if m.Is(a) {
			return true
		}
	}
	return false
}

// ResizeFile processes the image at src and writes the result to a new
// temporary file, returning its path. The caller owns the temporary file.
func ResizeFile(src string, opts Options) (string, error) {
	f, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	data, err := Process(f, opts)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp("", "whereisit-*.jpg")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	return tmp.Name(), nil
}

// scaleToWidth resizes img to width, preserving aspect ratio.
// Uses Catmull-Rom interpolation. Returns img unchanged if it is already
// no wider than width.
func scaleToWidth(img image.Image, width int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w <= width {
		return img
	}

	newH := int(float64(h) * float64(width) / float64(w))
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	// Register decoders (jpeg is registered by default, but be explicit).
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
