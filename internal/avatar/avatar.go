// Package avatar normalises uploaded profile images before they are sent
// to the backend: any supported format in, a bounded JPEG out.
package avatar

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"math"
	"net/http"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"code2deploy-console/internal/backend"
	"code2deploy-console/internal/upload"
	"code2deploy-console/pkg/apierror"
)

const (
	DefaultSize     = 512
	DefaultMaxBytes = 5 << 20
	// DefaultMaxPixels caps decoded width*height; a few KiB of PNG can
	// otherwise inflate to gigabytes.
	DefaultMaxPixels = 40_000_000
	jpegQuality      = 90
)

type Processor struct {
	maxBytes  int64
	maxPixels int
	size      int
}

func NewProcessor(maxBytes int64, size int) *Processor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if size <= 0 {
		size = DefaultSize
	}
	return &Processor{maxBytes: maxBytes, maxPixels: DefaultMaxPixels, size: size}
}

func (p *Processor) MaxBytes() int64 {
	return p.maxBytes
}

// Process decodes r, scales it to fit size x size and re-encodes it as
// JPEG. Images already within bounds are re-encoded without scaling.
func (p *Processor) Process(r io.Reader, filename string) (backend.File, error) {
	data, err := io.ReadAll(io.LimitReader(r, p.maxBytes+1))
	if err != nil {
		return backend.File{}, fmt.Errorf("read avatar: %w", err)
	}
	if int64(len(data)) > p.maxBytes {
		return backend.File{}, apierror.New("PAYLOAD_TOO_LARGE", "avatar is too large",
			fmt.Sprintf("limit is %d bytes", p.maxBytes), http.StatusRequestEntityTooLarge)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return backend.File{}, apierror.New("UNSUPPORTED_TYPE", "cannot decode image", err.Error(), http.StatusUnsupportedMediaType)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return backend.File{}, apierror.New("UNSUPPORTED_TYPE", "invalid image dimensions", "", http.StatusUnsupportedMediaType)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(p.maxPixels) {
		return backend.File{}, apierror.New("PAYLOAD_TOO_LARGE", "image dimensions are too large",
			fmt.Sprintf("%dx%d exceeds %d pixels", cfg.Width, cfg.Height, p.maxPixels), http.StatusRequestEntityTooLarge)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return backend.File{}, apierror.New("UNSUPPORTED_TYPE", "cannot decode image", err.Error(), http.StatusUnsupportedMediaType)
	}
	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return backend.File{}, apierror.New("UNSUPPORTED_TYPE", "invalid image dimensions", "", http.StatusUnsupportedMediaType)
	}

	w, h := fit(bounds.Dx(), bounds.Dy(), p.size)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha; flatten onto white.
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return backend.File{}, fmt.Errorf("encode avatar: %w", err)
	}

	return backend.File{
		Field:       "avatar",
		Filename:    jpegName(filename),
		ContentType: "image/jpeg",
		Data:        out.Bytes(),
	}, nil
}

func fit(width, height, size int) (int, int) {
	scale := float64(size) / float64(max(width, height))
	if scale > 1 {
		scale = 1
	}
	w := max(int(math.Round(float64(width)*scale)), 1)
	h := max(int(math.Round(float64(height)*scale)), 1)
	return w, h
}

func jpegName(filename string) string {
	return upload.WithExtension(upload.CleanFilename(filename, "avatar"), ".jpg")
}
