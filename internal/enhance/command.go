package enhance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os/exec"
	"strings"
	"time"

	"github.com/high-horse/fingerprint-gateway/internal/raster"
)

// CommandName identifies the external-process enhancer.
const CommandName = "command"

// outputPixelFactor bounds the program's output to this many times the input pixels.
const outputPixelFactor = 16

// Command pipes the raster to an external program as binary PGM on stdin and
// decodes whatever image the program writes to stdout.
type Command struct {
	Path    string
	Args    []string
	Timeout time.Duration
}

func NewCommand(path string, args []string, timeout time.Duration) *Command {
	return &Command{Path: path, Args: args, Timeout: timeout}
}

func (c *Command) Enhance(ctx context.Context, src *image.Gray) (*image.Gray, error) {
	if c.Path == "" {
		return nil, newError(CommandName, errors.New("no program configured"))
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var stdin bytes.Buffer
	if err := raster.EncodePGM(&stdin, src); err != nil {
		return nil, newError(CommandName, err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Stdin = &stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, newError(CommandName, fmt.Errorf("run %s: %w", c.Path, err))
	}

	// Output may be upscaled, but not without bound.
	b := src.Bounds()
	out, err := raster.Decode(stdout.Bytes(), outputPixelFactor*b.Dx()*b.Dy())
	if err != nil {
		return nil, newError(CommandName, fmt.Errorf("read %s output: %w", c.Path, err))
	}
	return out, nil
}
