package models

import "sort"

// World is the authoritative snapshot of the corridor. A committed World is
// never modified in place; the engine builds a new value for every change.
type World struct {
	Trains          []Train          `json:"trains" yaml:"trains"`
	Stations        []Station        `json:"stations" yaml:"stations"`
	Recommendations []Recommendation `json:"recommendations" yaml:"recommendations"`
	Alerts          []Alert          `json:"alerts" yaml:"alerts"`
}

// Station returns the station with the given name.
func (w *World) Station(name string) (Station, bool) {
	for _, s := range w.Stations {
		if s.Name == name {
			return s, true
		}
	}
	return Station{}, false
}

// OccupiedPlatforms returns the platform numbers at station held by stopped
// trains, excluding the train with id except.
func (w *World) OccupiedPlatforms(station, except string) map[int]bool {
	occupied := make(map[int]bool)
	for _, t := range w.Trains {
		if t.ID == except || t.CurrentLocation != station || t.Status != StatusStopped {
			continue
		}
		if n, ok := ParsePlatform(t.Track); ok {
			occupied[n] = true
		}
	}
	return occupied
}

// FreePlatforms returns the unoccupied platform numbers of s in ascending order.
func (w *World) FreePlatforms(s Station) []int {
	occupied := w.OccupiedPlatforms(s.Name, "")
	var free []int
	for n := 1; n <= s.PlatformTracks; n++ {
		if !occupied[n] {
			free = append(free, n)
		}
	}
	return free
}

// PlatformOccupancy maps each station name to its occupied platform numbers.
func (w *World) PlatformOccupancy() map[string][]int {
	out := make(map[string][]int)
	for _, t := range w.Trains {
		if t.Status != StatusStopped {
			continue
		}
		if n, ok := ParsePlatform(t.Track); ok {
			out[t.CurrentLocation] = append(out[t.CurrentLocation], n)
		}
	}
	for name := range out {
		sort.Ints(out[name])
	}
	return out
}

// StatusCounts returns the number of trains in each status.
func (w *World) StatusCounts() map[TrainStatus]int {
	counts := make(map[TrainStatus]int)
	for _, t := range w.Trains {
		counts[t.Status]++
	}
	return counts
}
