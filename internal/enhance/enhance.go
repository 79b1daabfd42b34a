// Package enhance defines the ridge-enhancement boundary of the gateway and
// its concrete implementations.
//
// Every Enhancer receives an 8-bit single-channel raster anchored at the
// origin and returns an 8-bit single-channel raster. Output dimensions are
// defined by the implementation.
package enhance

import (
	"context"
	"fmt"
	"image"
)

// Enhancer sharpens ridge/valley contrast of a fingerprint raster.
type Enhancer interface {
	Enhance(ctx context.Context, src *image.Gray) (*image.Gray, error)
}

// Func adapts a plain function to Enhancer.
type Func func(ctx context.Context, src *image.Gray) (*image.Gray, error)

func (f Func) Enhance(ctx context.Context, src *image.Gray) (*image.Gray, error) {
	return f(ctx, src)
}

// EnhancementError reports a failure inside an Enhancer.
type EnhancementError struct {
	Enhancer string
	Err      error
}

func (e *EnhancementError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return fmt.Sprintf("%s enhancer: %v", e.Enhancer, e.Err)
}

func (e *EnhancementError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(enhancer string, err error) error {
	if err == nil {
		return nil
	}
	return &EnhancementError{Enhancer: enhancer, Err: err}
}
