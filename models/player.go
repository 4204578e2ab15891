package models

// PlaybackSession is a point-in-time snapshot of an active player session.
// It is transient state owned by the player service and never persisted.
type PlaybackSession struct {
	ID              string  `json:"id"`
	ContentID       string  `json:"contentId"`
	State           string  `json:"state"` // idle | loading | ready | playing | paused | ended
	CurrentTime     float64 `json:"currentTime"` // seconds
	Duration        float64 `json:"duration"`    // seconds
	IsPlaying       bool    `json:"isPlaying"`
	IsLoading       bool    `json:"isLoading"`
	Volume          float64 `json:"volume"` // [0, 1]
	IsMuted         bool    `json:"isMuted"`
	IsFullscreen    bool    `json:"isFullscreen"`
	ControlsVisible bool    `json:"controlsVisible"`
}
