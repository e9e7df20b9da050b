// internal/capture/capture_test.go
package capture

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sitelens/api/schemas"
)

// fakeDriver records the sequence of driver operations to verify the
// two-phase capture protocol.
type fakeDriver struct {
	scrollHeight int64
	scrollErr    error
	viewportErr  error
	captureErr   error
	elementErr   error

	ops       []string
	viewports [][2]int64
	captures  int
}

func (f *fakeDriver) ScrollHeight(context.Context) (int64, error) {
	f.ops = append(f.ops, "scroll_height")
	return f.scrollHeight, f.scrollErr
}

func (f *fakeDriver) SetViewport(_ context.Context, w, h int64) error {
	f.ops = append(f.ops, fmt.Sprintf("set_viewport:%dx%d", w, h))
	f.viewports = append(f.viewports, [2]int64{w, h})
	return f.viewportErr
}

func (f *fakeDriver) ResetViewport(context.Context) error {
	f.ops = append(f.ops, "reset_viewport")
	return f.viewportErr
}

func (f *fakeDriver) CaptureViewport(context.Context) ([]byte, error) {
	f.captures++
	f.ops = append(f.ops, "capture_viewport")
	if f.captureErr != nil {
		return nil, f.captureErr
	}
	return []byte(fmt.Sprintf("png-%d", f.captures)), nil
}

func (f *fakeDriver) CaptureElement(_ context.Context, selector string) ([]byte, error) {
	f.ops = append(f.ops, "capture_element:"+selector)
	if f.elementErr != nil {
		return nil, f.elementErr
	}
	return []byte("png-main"), nil
}

func TestCapture_ProducesAllThreeShots(t *testing.T) {
	drv := &fakeDriver{scrollHeight: 4500}
	shots, err := New(1920, zap.NewNop()).Capture(context.Background(), drv)
	require.NoError(t, err)

	require.Len(t, shots, 3)
	assert.Equal(t, schemas.ScreenshotFullPage, shots[0].Type)
	assert.Equal(t, schemas.ScreenshotViewport, shots[1].Type)
	assert.Equal(t, schemas.ScreenshotMainContent, shots[2].Type)

	// Payloads are base64 encoded.
	decoded, err := base64.StdEncoding.DecodeString(shots[0].Data)
	require.NoError(t, err)
	assert.Equal(t, "png-1", string(decoded))
}

func TestCapture_ResizeSequence(t *testing.T) {
	drv := &fakeDriver{scrollHeight: 9000}
	_, err := New(1920, zap.NewNop()).Capture(context.Background(), drv)
	require.NoError(t, err)

	// Grow to full scroll height, capture, restore, capture, then the
	// optional element shot.
	assert.Equal(t, []string{
		"scroll_height",
		"set_viewport:1920x9000",
		"capture_viewport",
		"reset_viewport",
		"capture_viewport",
		"capture_element:main",
	}, drv.ops)
}

func TestCapture_MainContentSkippedSilently(t *testing.T) {
	drv := &fakeDriver{scrollHeight: 2000, elementErr: errors.New("no main element")}
	shots, err := New(1920, zap.NewNop()).Capture(context.Background(), drv)
	require.NoError(t, err)

	require.Len(t, shots, 2)
	assert.Equal(t, schemas.ScreenshotFullPage, shots[0].Type)
	assert.Equal(t, schemas.ScreenshotViewport, shots[1].Type)
}

func TestCapture_ScrollHeightFailurePropagates(t *testing.T) {
	drv := &fakeDriver{scrollErr: errors.New("session gone")}
	_, err := New(1920, zap.NewNop()).Capture(context.Background(), drv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full page capture")
}

func TestCapture_ViewportCaptureFailurePropagates(t *testing.T) {
	drv := &fakeDriver{scrollHeight: 1000, captureErr: errors.New("target crashed")}
	_, err := New(1920, zap.NewNop()).Capture(context.Background(), drv)
	require.Error(t, err)
	assert.ErrorContains(t, err, "target crashed")
}
