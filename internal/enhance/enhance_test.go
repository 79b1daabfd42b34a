package enhance

import (
	"context"
	"errors"
	"image"
	"math/rand"
	"os/exec"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noise(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	rand.New(rand.NewSource(42)).Read(img.Pix)
	return img
}

func lookPath(t *testing.T, name string) string {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
	return path
}

func TestFunc(t *testing.T) {
	src := noise(4, 4)
	var seen *image.Gray
	e := Func(func(_ context.Context, in *image.Gray) (*image.Gray, error) {
		seen = in
		return in, nil
	})

	out, err := e.Enhance(context.Background(), src)
	require.NoError(t, err)
	assert.Same(t, src, seen)
	assert.Same(t, src, out)
}

func TestEnhancementErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := newError("stub", cause)

	var ee *EnhancementError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "stub", ee.Enhancer)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "stub enhancer: boom", err.Error())
	assert.NoError(t, newError("stub", nil))
}

func TestCommandRoundTrip(t *testing.T) {
	cat := lookPath(t, "cat")
	src := noise(17, 11)

	out, err := NewCommand(cat, nil, time.Second).Enhance(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), out.Bounds())
	assert.Equal(t, src.Pix, out.Pix)
}

func TestCommandFailure(t *testing.T) {
	sh := lookPath(t, "sh")

	_, err := NewCommand(sh, []string{"-c", "cat >/dev/null; echo ridge filter crashed >&2; exit 3"}, time.Second).
		Enhance(context.Background(), noise(8, 8))
	var ee *EnhancementError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, CommandName, ee.Enhancer)
	assert.Contains(t, err.Error(), "ridge filter crashed")
}

func TestCommandUndecodableOutput(t *testing.T) {
	sh := lookPath(t, "sh")

	_, err := NewCommand(sh, []string{"-c", "cat >/dev/null; echo not-an-image"}, time.Second).
		Enhance(context.Background(), noise(8, 8))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output")
}

func TestCommandTimeout(t *testing.T) {
	sleep := lookPath(t, "sleep")

	start := time.Now()
	_, err := NewCommand(sleep, []string{"5"}, 50*time.Millisecond).Enhance(context.Background(), noise(8, 8))
	require.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestCommandWithoutProgram(t *testing.T) {
	_, err := (&Command{}).Enhance(context.Background(), noise(2, 2))
	assert.ErrorContains(t, err, "no program configured")
}

func TestDoubleMatrixGray(t *testing.T) {
	data, err := cbor.Marshal(doubleMatrix{Width: 3, Height: 2, Cells: []float64{-1, 0, 1, 1, 0, -1}})
	require.NoError(t, err)

	var m doubleMatrix
	require.NoError(t, cbor.Unmarshal(data, &m))
	out, err := m.gray()
	require.NoError(t, err)

	require.Equal(t, image.Rect(0, 0, 3, 2), out.Bounds())
	assert.Equal(t, []uint8{255, 128, 0, 0, 128, 255}, out.Pix)
}

func TestDoubleMatrixGrayRejectsMalformed(t *testing.T) {
	_, err := doubleMatrix{Width: 2, Height: 2, Cells: []float64{1}}.gray()
	assert.Error(t, err)

	_, err = doubleMatrix{}.gray()
	assert.Error(t, err)

	flat, err := doubleMatrix{Width: 2, Height: 1, Cells: []float64{0.5, 0.5}}.gray()
	require.NoError(t, err)
	assert.Equal(t, []uint8{128, 128}, flat.Pix)
}

func TestRidgeCaptureKeepsRequestedRecord(t *testing.T) {
	c := &ridgeCapture{key: SmoothedRidgesKey}

	assert.True(t, c.Accepts(SmoothedRidgesKey))
	assert.False(t, c.Accepts("binarized-image"))
	require.NoError(t, c.Accept(SmoothedRidgesKey, cborMime, []byte{1, 2}))
	assert.Equal(t, []byte{1, 2}, c.data)
	assert.Equal(t, cborMime, c.mime)
}
