package models

import "time"

// MyList is the user's saved-for-later collection. ContentIDs form a set;
// AddedTimestamps records when each membership was created.
type MyList struct {
	ContentIDs      []string             `json:"contentIds"`
	AddedTimestamps map[string]time.Time `json:"addedTimestamps"`
}

// Contains reports whether the content ID is a member of the list.
func (l MyList) Contains(contentID string) bool {
	for _, id := range l.ContentIDs {
		if id == contentID {
			return true
		}
	}
	return false
}

// AddedAt returns the membership timestamp for the content ID, or the zero
// time when the ID is not a member.
func (l MyList) AddedAt(contentID string) time.Time {
	if l.AddedTimestamps == nil {
		return time.Time{}
	}
	return l.AddedTimestamps[contentID]
}
