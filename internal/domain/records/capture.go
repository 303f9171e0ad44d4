package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNotReady means the device has not produced a decodable frame yet;
	// callers may retry.
	ErrNotReady = errors.New("camera frame not ready")
	// ErrDeviceClosed means the session's device has been released.
	ErrDeviceClosed = errors.New("capture device closed")
)

// CaptureDevice is an exclusive handle on a camera. Start reports
// permission or absence failures with a specific cause; Ready reports
// whether a decodable frame is available.
type CaptureDevice interface {
	Start(ctx context.Context) error
	Ready() bool
	Frame() ([]byte, error)
	Close() error
}

// CameraSession drives a CaptureDevice for one document capture. The
// device is released on every exit path and release is idempotent.
type CameraSession struct {
	dev CaptureDevice

	mu     sync.Mutex
	closed bool

	now func() time.Time
}

// NewCameraSession acquires the device. A start failure releases the
// device before returning.
func NewCameraSession(ctx context.Context, dev CaptureDevice) (*CameraSession, error) {
	if err := dev.Start(ctx); err != nil {
		dev.Close()
		return nil, fmt.Errorf("starting capture device: %w", err)
	}
	return &CameraSession{dev: dev, now: time.Now}, nil
}

// Capture takes a still from the device and releases it. The captured
// frame is synthesized as a JPEG named medical_document_<timestamp>.jpg,
// ready to feed through Upload.Attach. Capturing before the device reports
// a decodable frame returns ErrNotReady and keeps the session open.
func (cs *CameraSession) Capture() (FileInput, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.closed {
		return FileInput{}, ErrDeviceClosed
	}
	if !cs.dev.Ready() {
		return FileInput{}, ErrNotReady
	}

	data, err := cs.dev.Frame()
	if err != nil {
		cs.closeLocked()
		return FileInput{}, fmt.Errorf("capturing frame: %w", err)
	}
	cs.closeLocked()

	return FileInput{
		Name:        captureFileName(cs.now()),
		ContentType: "image/jpeg",
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}

// Close releases the device. Safe to call any number of times.
func (cs *CameraSession) Close() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.closeLocked()
}

func (cs *CameraSession) closeLocked() error {
	if cs.closed {
		return nil
	}
	cs.closed = true
	return cs.dev.Close()
}

// captureFileName formats the timestamp the way browser captures name
// their stills: RFC3339 with colons and dots replaced by dashes.
func captureFileName(t time.Time) string {
	stamp := t.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.ReplaceAll(stamp, ":", "-")
	stamp = strings.ReplaceAll(stamp, ".", "-")
	return "medical_document_" + stamp + ".jpg"
}
