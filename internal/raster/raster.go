// Package raster converts uploaded image bytes to 8-bit grayscale rasters and back.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/spakin/netpbm"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultJPEGQuality is used when no valid quality is configured.
	DefaultJPEGQuality = 95
	// DefaultMaxPixels bounds width*height when no valid limit is configured.
	DefaultMaxPixels = 25_000_000
)

var (
	ErrEmpty    = errors.New("raster: empty image data")
	ErrBounds   = errors.New("raster: image has no pixels")
	ErrTooLarge = errors.New("raster: image exceeds the pixel limit")
)

// Decode auto-detects the format of data and returns it as a grayscale raster
// anchored at the origin. The header is read first and images with more than
// maxPixels pixels are rejected before any pixel data is decoded; maxPixels <= 0
// disables the check.
func Decode(data []byte, maxPixels int) (*image.Gray, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("raster: decode header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrBounds
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d > %d", ErrTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("raster: decode: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, ErrBounds
	}
	return ToGray(img), nil
}

// ToGray converts img with the ITU-R 601 luma weights used by color.GrayModel.
func ToGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	if src, ok := img.(*image.Gray); ok {
		draw.Draw(gray, gray.Bounds(), src, bounds.Min, draw.Src)
		return gray
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			gray.SetGray(x-bounds.Min.X, y-bounds.Min.Y, c)
		}
	}
	return gray
}

// FlipHorizontal mirrors src along the vertical axis: pixel (x, y) of src
// lands at (w-1-x, y) of the result.
func FlipHorizontal(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		off := src.PixOffset(b.Min.X, b.Min.Y+y)
		in := src.Pix[off : off+w]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		for x := 0; x < w; x++ {
			out[w-1-x] = in[x]
		}
	}
	return dst
}

// EncodeJPEG compresses img. Quality outside 1..100 falls back to DefaultJPEGQuality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("raster: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePGM writes img as a binary 8-bit PGM (P5).
func EncodePGM(w io.Writer, img *image.Gray) error {
	err := netpbm.Encode(w, img, &netpbm.EncodeOptions{
		Format:   netpbm.PGM,
		MaxValue: 255,
	})
	if err != nil {
		return fmt.Errorf("raster: encode pgm: %w", err)
	}
	return nil
}
