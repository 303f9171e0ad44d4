package records

import (
	"fmt"
	"path/filepath"
	"strings"
)

// State names the stages of the upload pipeline.
type State string

const (
	StateAcquire       State = "ACQUIRE"
	StateAcquireCamera State = "ACQUIRE_CAMERA"
	StateDetails       State = "DETAILS"
	StateAnalyzing     State = "ANALYZING"
	StateDone          State = "DONE"
)

// MaxFileSize is the upload size cap (10 MiB).
const MaxFileSize = 10 << 20

// allowedExtensions gates what document types may enter the pipeline.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

// FileInput is a file handed to the pipeline, fully read into memory.
type FileInput struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// Upload tracks one document submission from acquisition to persistence.
// It is not safe for concurrent use; each submission owns its own Upload.
type Upload struct {
	state          State
	file           *FileInput
	suggestedTitle string
}

// NewUpload starts a pipeline in the ACQUIRE state.
func NewUpload() *Upload {
	return &Upload{state: StateAcquire}
}

// State reports the current pipeline stage.
func (u *Upload) State() State { return u.state }

// File returns the attached file, or nil before a successful Attach.
func (u *Upload) File() *FileInput { return u.file }

// SuggestedTitle is the filename-derived title offered when the caller
// supplies none.
func (u *Upload) SuggestedTitle() string { return u.suggestedTitle }

// StartCamera moves the pipeline into camera acquisition.
func (u *Upload) StartCamera() error {
	if u.state != StateAcquire {
		return fmt.Errorf("cannot start camera from state %s", u.state)
	}
	u.state = StateAcquireCamera
	return nil
}

// CancelCamera returns to plain file acquisition.
func (u *Upload) CancelCamera() {
	if u.state == StateAcquireCamera {
		u.state = StateAcquire
	}
}

// Attach validates the file and, on success, advances to DETAILS with a
// title suggestion derived from the filename. A rejected file leaves the
// pipeline in its acquisition state with no side effects.
func (u *Upload) Attach(f FileInput) error {
	if u.state != StateAcquire && u.state != StateAcquireCamera {
		return fmt.Errorf("cannot attach file in state %s", u.state)
	}

	ext := strings.ToLower(filepath.Ext(f.Name))
	if !allowedExtensions[ext] {
		return ErrInvalidFileType
	}
	if f.Size > MaxFileSize {
		return ErrFileTooLarge
	}

	u.file = &f
	u.suggestedTitle = strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
	u.state = StateDetails
	return nil
}

// backToDetails rewinds the pipeline after a failed persistence attempt so
// the user can retry without re-acquiring the file.
func (u *Upload) backToDetails() {
	u.state = StateDetails
}
