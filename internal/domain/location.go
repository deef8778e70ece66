package domain

import "fmt"

// TrackedLocation is a place one or more users follow. The registry owns
// the record; pipelines only read it.
type TrackedLocation struct {
	ID      int64   `json:"location_id"`
	Name    string  `json:"name"`
	Lat     float64 `json:"latitude"`
	Lon     float64 `json:"longitude"`
	Active  bool    `json:"is_active"`
	UserIDs []int64 `json:"user_ids,omitempty"`
}

// Validate checks the coordinate ranges and that the location is addressable.
func (l TrackedLocation) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("location %d: name is empty", l.ID)
	}
	if l.Lat < -90 || l.Lat > 90 {
		return fmt.Errorf("location %q: latitude %.4f out of range [-90,90]", l.Name, l.Lat)
	}
	if l.Lon < -180 || l.Lon > 180 {
		return fmt.Errorf("location %q: longitude %.4f out of range [-180,180]", l.Name, l.Lon)
	}
	return nil
}

// Query returns the free-text query sent to the weather provider.
func (l TrackedLocation) Query() string {
	return l.Name
}
