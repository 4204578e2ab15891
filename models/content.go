package models

import "strconv"

// ContentItem is a catalog entry (movie or series). Items are produced by the
// catalog ingest pipeline and are read-only to this service.
type ContentItem struct {
	ID             int      `json:"Id"`
	Title          string   `json:"title"`
	Synopsis       string   `json:"synopsis"`
	VideoURL       string   `json:"videoUrl"`
	Duration       int      `json:"duration"` // minutes
	ReleaseYear    int      `json:"releaseYear"`
	Rating         string   `json:"rating"` // decimal string, 0-10
	MaturityRating string   `json:"maturityRating"`
	Type           string   `json:"type"` // movie | series
	Genres         []string `json:"genre"`
	Cast           []string `json:"cast"`
	Director       string   `json:"director"`
	Thumbnail      string   `json:"thumbnail,omitempty"`
	Backdrop       string   `json:"backdrop,omitempty"`
}

// ContentID returns the string form of the item ID, the key used by progress
// and list records.
func (c ContentItem) ContentID() string {
	return strconv.Itoa(c.ID)
}

// RatingValue parses the decimal rating string. Unparseable ratings count as 0.
func (c ContentItem) RatingValue() float64 {
	v, err := strconv.ParseFloat(c.Rating, 64)
	if err != nil {
		return 0
	}
	return v
}

// HasGenre reports whether the item carries the exact genre.
func (c ContentItem) HasGenre(genre string) bool {
	for _, g := range c.Genres {
		if g == genre {
			return true
		}
	}
	return false
}
