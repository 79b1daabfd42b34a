package enhance

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"runtime"

	"github.com/fxamacker/cbor/v2"
	"github.com/jtejido/sourceafis"
	"github.com/jtejido/sourceafis/config"
)

const (
	// AFISName identifies the SourceAFIS-backed enhancer in configuration and errors.
	AFISName = "afis"

	// SmoothedRidgesKey is the transparency record holding the ridge image
	// after orthogonal smoothing.
	SmoothedRidgesKey = "orthogonal-smoothing"

	cborMime = "application/cbor"
)

// doubleMatrix is the CBOR shape of SourceAFIS matrix transparency records.
type doubleMatrix struct {
	Width  int       `cbor:"width"`
	Height int       `cbor:"height"`
	Cells  []float64 `cbor:"cells"`
}

// ridgeCapture keeps a single transparency record and ignores the rest.
type ridgeCapture struct {
	key  string
	mime string
	data []byte
}

func (c *ridgeCapture) Accepts(key string) bool {
	return key == c.key
}

func (c *ridgeCapture) Accept(key, mime string, data []byte) error {
	c.mime = mime
	c.data = append(c.data[:0], data...)
	return nil
}

// AFIS enhances a fingerprint by running SourceAFIS feature extraction and
// keeping the smoothed ridge image it produces on the way. Darker pixels in
// the result are ridges.
type AFIS struct {
	key string
}

// NewAFIS loads the SourceAFIS defaults. workers <= 0 uses every CPU.
func NewAFIS(workers int) *AFIS {
	config.LoadDefaultConfig()
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	config.Config.Workers = workers
	return &AFIS{key: SmoothedRidgesKey}
}

func (a *AFIS) Enhance(ctx context.Context, src *image.Gray) (*image.Gray, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError(AFISName, err)
	}
	img, err := sourceafis.NewFromGray(src)
	if err != nil {
		return nil, newError(AFISName, fmt.Errorf("load raster: %w", err))
	}

	capture := &ridgeCapture{key: a.key}
	tc := sourceafis.NewTemplateCreator(sourceafis.NewTransparencyLogger(capture))
	if _, err := tc.Template(img); err != nil {
		return nil, newError(AFISName, fmt.Errorf("extract template: %w", err))
	}
	if len(capture.data) == 0 {
		return nil, newError(AFISName, fmt.Errorf("no %q transparency record", a.key))
	}
	if capture.mime != cborMime {
		return nil, newError(AFISName, fmt.Errorf("unexpected %q record type %q", a.key, capture.mime))
	}

	var m doubleMatrix
	if err := cbor.Unmarshal(capture.data, &m); err != nil {
		return nil, newError(AFISName, fmt.Errorf("decode %q record: %w", a.key, err))
	}
	out, err := m.gray()
	if err != nil {
		return nil, newError(AFISName, err)
	}
	return out, nil
}

// gray stretches the matrix to 0..255, mapping the highest ridge response to black.
func (m doubleMatrix) gray() (*image.Gray, error) {
	if m.Width <= 0 || m.Height <= 0 {
		return nil, fmt.Errorf("matrix has invalid size %dx%d", m.Width, m.Height)
	}
	if len(m.Cells) != m.Width*m.Height {
		return nil, fmt.Errorf("matrix has %d cells, want %d", len(m.Cells), m.Width*m.Height)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range m.Cells {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.New("matrix contains non-finite values")
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	out := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	span := hi - lo
	for i, v := range m.Cells {
		if span == 0 {
			out.Pix[i] = 128
			continue
		}
		out.Pix[i] = uint8(math.Round(255 * (hi - v) / span))
	}
	return out, nil
}
