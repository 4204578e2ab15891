package player

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"flixvault/models"
)

// State is a playback lifecycle phase.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateEnded   State = "ended"
)

// DefaultControlsHideDelay is how long the control overlay stays up after
// the last interaction while playback is running.
const DefaultControlsHideDelay = 3 * time.Second

var (
	ErrContentIDRequired = errors.New("content id is required")
	ErrSessionClosed     = errors.New("playback session is closed")
)

// ProgressReporter receives progress fractions as playback advances. The
// session reports asynchronously and drops reporter errors; saving history
// must never stall the player.
type ProgressReporter interface {
	UpdateProgress(ctx context.Context, contentID string, progress float64) (models.ProgressRecord, error)
}

// Screen abstracts the fullscreen toggle of whatever surface hosts playback.
type Screen interface {
	SetFullscreen(on bool) error
}

// Option configures a session at creation.
type Option func(*Session)

// WithControlsHideDelay overrides the auto-hide delay for the controls.
func WithControlsHideDelay(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.hideDelay = d
		}
	}
}

// WithScreen attaches a fullscreen surface to the session.
func WithScreen(sc Screen) Option {
	return func(s *Session) { s.screen = sc }
}

// Session drives one playback of one title through its lifecycle
//
//	idle -> loading -> ready <-> playing <-> paused -> ended
//
// and reports watch progress as time advances. All methods are safe for
// concurrent use.
type Session struct {
	id        string
	contentID string
	hideDelay time.Duration
	screen    Screen

	mu              sync.Mutex
	state           State
	currentTime     float64
	duration        float64
	initialProgress float64
	volume          float64
	lastVolume      float64
	muted           bool
	fullscreen      bool
	controlsVisible bool
	hideTimer       *time.Timer
	reporter        ProgressReporter
	closed          bool
}

// NewSession prepares a session in the idle state. initialProgress is the
// stored watch fraction to resume from; pass 0 to start from the top.
func NewSession(id, contentID string, initialProgress float64, reporter ProgressReporter, opts ...Option) (*Session, error) {
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return nil, ErrContentIDRequired
	}

	if initialProgress < 0 || initialProgress >= 1 {
		initialProgress = 0
	}

	s := &Session{
		id:              id,
		contentID:       contentID,
		hideDelay:       DefaultControlsHideDelay,
		state:           StateIdle,
		initialProgress: initialProgress,
		volume:          1,
		lastVolume:      1,
		controlsVisible: true,
		reporter:        reporter,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// ID returns the session identity.
func (s *Session) ID() string { return s.id }

// ContentID returns the title this session plays.
func (s *Session) ContentID() string { return s.contentID }

// Load moves an idle session into loading. Called when the media source is
// attached.
func (s *Session) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.state != StateIdle {
		return nil
	}

	s.state = StateLoading
	s.showControlsLocked()
	return nil
}

// HandleMetadataLoaded records the media duration and resumes from the
// stored position. The session becomes ready.
func (s *Session) HandleMetadataLoaded(duration float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if duration < 0 {
		duration = 0
	}

	s.duration = duration
	if s.initialProgress > 0 && duration > 0 {
		s.currentTime = s.initialProgress * duration
	}
	if s.state == StateIdle || s.state == StateLoading {
		s.state = StateReady
	}
	s.showControlsLocked()
	return nil
}

// Play starts or resumes playback.
func (s *Session) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	switch s.state {
	case StateReady, StatePaused, StateEnded:
		if s.state == StateEnded {
			s.currentTime = 0
		}
		s.state = StatePlaying
		s.showControlsLocked()
	}
	return nil
}

// Pause suspends playback and keeps the controls up.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.state != StatePlaying {
		return nil
	}

	s.state = StatePaused
	s.showControlsLocked()
	return nil
}

// TogglePlayback flips between playing and paused.
func (s *Session) TogglePlayback() error {
	s.mu.Lock()
	playing := s.state == StatePlaying
	s.mu.Unlock()

	if playing {
		return s.Pause()
	}
	return s.Play()
}

// HandleTimeUpdate advances the playhead. While playing, the corresponding
// progress fraction is reported in the background.
func (s *Session) HandleTimeUpdate(t float64) error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}

	if t < 0 {
		t = 0
	}
	if s.duration > 0 && t > s.duration {
		t = s.duration
	}
	s.currentTime = t

	report := s.state == StatePlaying && s.duration > 0 && s.reporter != nil
	var (
		reporter ProgressReporter
		fraction float64
	)
	if report {
		reporter = s.reporter
		fraction = t / s.duration
	}
	s.mu.Unlock()

	if report {
		go func() {
			reporter.UpdateProgress(context.Background(), s.contentID, fraction)
		}()
	}
	return nil
}

// HandleEnded marks the title as finished. Progress is forced to 1.0 so the
// record is completed regardless of where the final tick landed.
func (s *Session) HandleEnded() error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}

	s.state = StateEnded
	s.currentTime = s.duration
	s.showControlsLocked()
	reporter := s.reporter
	s.mu.Unlock()

	if reporter != nil {
		go func() {
			reporter.UpdateProgress(context.Background(), s.contentID, 1.0)
		}()
	}
	return nil
}

// Seek moves the playhead without reporting progress; the next time update
// carries the new position to the store.
func (s *Session) Seek(t float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	if t < 0 {
		t = 0
	}
	if s.duration > 0 && t > s.duration {
		t = s.duration
	}
	s.currentTime = t
	s.showControlsLocked()
	return nil
}

// SetVolume sets the output level in [0,1]. Zero mutes; any positive level
// unmutes and becomes the level ToggleMute restores.
func (s *Session) SetVolume(v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}

	s.volume = v
	if v == 0 {
		s.muted = true
	} else {
		s.muted = false
		s.lastVolume = v
	}
	s.showControlsLocked()
	return nil
}

// ToggleMute silences or restores the output. Unmuting returns to the last
// non-zero level.
func (s *Session) ToggleMute() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	if s.muted {
		s.muted = false
		s.volume = s.lastVolume
	} else {
		if s.volume > 0 {
			s.lastVolume = s.volume
		}
		s.muted = true
		s.volume = 0
	}
	s.showControlsLocked()
	return nil
}

// ToggleFullscreen flips the fullscreen flag, driving the attached screen
// when one is present. A screen failure leaves the flag unchanged.
func (s *Session) ToggleFullscreen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	next := !s.fullscreen
	if s.screen != nil {
		if err := s.screen.SetFullscreen(next); err != nil {
			return err
		}
	}
	s.fullscreen = next
	s.showControlsLocked()
	return nil
}

// PointerActivity shows the controls and restarts the auto-hide countdown.
func (s *Session) PointerActivity() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	s.showControlsLocked()
	return nil
}

// Snapshot returns the current observable session state.
func (s *Session) Snapshot() models.PlaybackSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	return models.PlaybackSession{
		ID:              s.id,
		ContentID:       s.contentID,
		State:           string(s.state),
		CurrentTime:     s.currentTime,
		Duration:        s.duration,
		IsPlaying:       s.state == StatePlaying,
		IsLoading:       s.state == StateLoading,
		Volume:          s.volume,
		IsMuted:         s.muted,
		IsFullscreen:    s.fullscreen,
		ControlsVisible: s.controlsVisible,
	}
}

// Close tears the session down: the hide timer stops, the reporter is
// detached and further calls fail with ErrSessionClosed. Closing twice is
// harmless.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	s.reporter = nil
	if s.hideTimer != nil {
		s.hideTimer.Stop()
		s.hideTimer = nil
	}
	return nil
}

// showControlsLocked surfaces the controls and, while playing, schedules
// them to hide again after the delay. Callers hold s.mu.
func (s *Session) showControlsLocked() {
	s.controlsVisible = true

	if s.hideTimer != nil {
		s.hideTimer.Stop()
		s.hideTimer = nil
	}
	if s.state != StatePlaying {
		return
	}

	s.hideTimer = time.AfterFunc(s.hideDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.state != StatePlaying {
			return
		}
		s.controlsVisible = false
	})
}
