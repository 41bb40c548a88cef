// Package models defines core data structures for places, queries, and search results.
package models

// Place is a venue as returned to API clients.
type Place struct {
	PlaceID      string   `json:"place_id" db:"place_id"`
	Name         string   `json:"name" db:"name"`
	Neighborhood string   `json:"neighborhood,omitempty" db:"neighborhood"`
	Latitude     *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude    *float64 `json:"longitude,omitempty" db:"longitude"`
	Tags         []string `json:"tags,omitempty" db:"tags"`
	Description  string   `json:"description,omitempty" db:"description"`
	Reviews      []string `json:"reviews,omitempty" db:"-"`
	Emoji        string   `json:"emoji,omitempty" db:"emoji"`
	Score        float64  `json:"score"`
}

// PlaceMeta is the metadata stored alongside index entries. The vector store
// returns it with each match; fields missing from the index are filled from
// the catalog at response-assembly time.
type PlaceMeta struct {
	Name         string   `json:"name,omitempty"`
	Neighborhood string   `json:"neighborhood,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Description  string   `json:"description,omitempty"`
	Emoji        string   `json:"emoji,omitempty"`
}

// Clone returns a copy of m. The index hands out its stored metadata by
// pointer, so anything merging request state into a meta must clone first.
func (m *PlaceMeta) Clone() *PlaceMeta {
	if m == nil {
		return nil
	}
	out := *m
	if len(m.Tags) > 0 {
		out.Tags = append([]string(nil), m.Tags...)
	}
	return &out
}

// MergeFrom fills any empty fields of m from other. Non-empty fields win.
func (m *PlaceMeta) MergeFrom(other *PlaceMeta) {
	if other == nil {
		return
	}
	if m.Name == "" {
		m.Name = other.Name
	}
	if m.Neighborhood == "" {
		m.Neighborhood = other.Neighborhood
	}
	if m.Latitude == nil {
		m.Latitude = other.Latitude
	}
	if m.Longitude == nil {
		m.Longitude = other.Longitude
	}
	if len(m.Tags) == 0 {
		m.Tags = other.Tags
	}
	if m.Description == "" {
		m.Description = other.Description
	}
	if m.Emoji == "" {
		m.Emoji = other.Emoji
	}
}
