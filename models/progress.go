package models

import "time"

// ProgressRecord captures how far playback of one content item has advanced.
// At most one record exists per content ID; writes are upserts.
type ProgressRecord struct {
	ID        string    `json:"id"`
	ContentID string    `json:"contentId"`
	Progress  float64   `json:"progress"` // fraction watched, [0, 1]
	Completed bool      `json:"completed"`
	Timestamp time.Time `json:"timestamp"`
}

// ContinueWatchingEntry pairs an in-progress record with its resolved catalog
// item for the continue-watching shelf.
type ContinueWatchingEntry struct {
	Record  ProgressRecord `json:"record"`
	Content ContentItem    `json:"content"`
}
