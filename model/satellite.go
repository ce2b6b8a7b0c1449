package model

import "time"

// Satellite is a tracked object in the catalog: identity plus the element
// set used to propagate it.
type Satellite struct {
	ID      int64
	Name    string
	NoradID int // NORAD catalog number, unique across the catalog

	TLELine1     string
	TLELine2     string
	TLEUpdatedAt time.Time
}

// HasTLE reports whether the satellite carries an element set.
func (s Satellite) HasTLE() bool {
	return s.TLELine1 != "" && s.TLELine2 != ""
}
