package gateway

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/high-horse/fingerprint-gateway/internal/enhance"
	"github.com/high-horse/fingerprint-gateway/internal/raster"
)

// Processor runs decode, flip, enhance and encode for one upload.
type Processor struct {
	enhancer  enhance.Enhancer
	quality   int
	maxPixels int
	logger    *zap.Logger
}

// NewProcessor returns a Processor. A maxPixels <= 0 selects raster.DefaultMaxPixels.
func NewProcessor(enhancer enhance.Enhancer, jpegQuality, maxPixels int, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxPixels <= 0 {
		maxPixels = raster.DefaultMaxPixels
	}
	return &Processor{enhancer: enhancer, quality: jpegQuality, maxPixels: maxPixels, logger: logger}
}

// Process returns the enhanced image as a base64-encoded JPEG. Errors are *Error.
func (p *Processor) Process(ctx context.Context, data []byte) (string, error) {
	gray, err := raster.Decode(data, p.maxPixels)
	if err != nil {
		return "", badInput(err)
	}
	p.logger.Debug("decoded upload",
		zap.Int("bytes", len(data)),
		zap.Int("width", gray.Bounds().Dx()),
		zap.Int("height", gray.Bounds().Dy()))

	enhanced, err := p.enhance(ctx, raster.FlipHorizontal(gray))
	if err != nil {
		return "", processingFailure(err)
	}

	encoded, err := raster.EncodeJPEG(enhanced, p.quality)
	if err != nil {
		return "", processingFailure(err)
	}
	return base64.StdEncoding.EncodeToString(encoded), nil
}

func (p *Processor) enhance(ctx context.Context, src *image.Gray) (out *image.Gray, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, p.enhancementError(fmt.Errorf("panic: %v", r))
		}
	}()

	out, err = p.enhancer.Enhance(ctx, src)
	if err != nil {
		return nil, err
	}
	if out == nil || out.Bounds().Empty() {
		return nil, p.enhancementError(errors.New("empty raster returned"))
	}
	return out, nil
}

func (p *Processor) enhancementError(err error) *enhance.EnhancementError {
	return &enhance.EnhancementError{Enhancer: fmt.Sprintf("%T", p.enhancer), Err: err}
}
