// Package session records successive snapshots between start and stop.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dicklesworthstone/droidscout/internal/model"
)

var (
	ErrNotRecording     = errors.New("session: not recording")
	ErrAlreadyRecording = errors.New("session: already recording")
	ErrOutOfOrder       = errors.New("session: snapshot older than last recorded")
)

// State of the recorder.
type State int

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	if s == Recording {
		return "recording"
	}
	return "idle"
}

// Recorder is the IDLE -> RECORDING -> IDLE state machine. All methods are
// safe for concurrent use by the collection loop and control surfaces.
type Recorder struct {
	mu      sync.Mutex
	state   State
	current model.Session
	now     func() time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// Start clears any previous recording and begins a new session.
func (r *Recorder) Start(device string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Recording {
		return r.current.ID, ErrAlreadyRecording
	}
	r.current = model.Session{
		ID:      uuid.New().String(),
		Device:  device,
		Started: r.now(),
	}
	r.state = Recording
	return r.current.ID, nil
}

// Record appends s while recording and is a no-op otherwise. Snapshots must
// arrive in time order; an older one is rejected rather than reordered.
func (r *Recorder) Record(s model.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Recording {
		return nil
	}
	if n := len(r.current.Snapshots); n > 0 && s.Timestamp.Before(r.current.Snapshots[n-1].Timestamp) {
		return ErrOutOfOrder
	}
	r.current.Snapshots = append(r.current.Snapshots, s)
	return nil
}

// Stop seals and returns the recorded session.
func (r *Recorder) Stop() (model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Recording {
		return model.Session{}, ErrNotRecording
	}
	sealed := r.current
	sealed.Stopped = r.now()
	r.current = model.Session{}
	r.state = Idle
	return sealed, nil
}

func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Len is the number of snapshots recorded so far.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.current.Snapshots)
}
