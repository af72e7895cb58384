// Package timezones holds the curated list of zones an event may be
// scheduled in. Shift times in event files are read in the event's zone.
package timezones

import (
	"sort"
	"sync"
	"time"
	_ "time/tzdata"
)

type Zone struct {
	ID     string
	Label  string
	Region string
}

type ZoneGroup struct {
	Region string
	Zones  []Zone
}

var curated = []Zone{
	{"UTC", "Coordinated Universal Time", "Other"},
	{"Europe/Berlin", "Berlin, Frankfurt, Munich", "Europe"},
	{"Europe/Vienna", "Vienna", "Europe"},
	{"Europe/Zurich", "Zurich, Bern", "Europe"},
	{"Europe/Amsterdam", "Amsterdam", "Europe"},
	{"Europe/Brussels", "Brussels", "Europe"},
	{"Europe/Paris", "Paris", "Europe"},
	{"Europe/Luxembourg", "Luxembourg", "Europe"},
	{"Europe/Copenhagen", "Copenhagen", "Europe"},
	{"Europe/Prague", "Prague", "Europe"},
	{"Europe/Warsaw", "Warsaw", "Europe"},
	{"Europe/Rome", "Rome, Milan", "Europe"},
	{"Europe/Madrid", "Madrid, Barcelona", "Europe"},
	{"Europe/Lisbon", "Lisbon", "Europe"},
	{"Europe/London", "London, Edinburgh", "Europe"},
	{"Europe/Dublin", "Dublin", "Europe"},
	{"Europe/Stockholm", "Stockholm", "Europe"},
	{"Europe/Oslo", "Oslo", "Europe"},
	{"Europe/Helsinki", "Helsinki", "Europe"},
	{"Europe/Athens", "Athens", "Europe"},
	{"America/New_York", "Eastern Time (New York)", "Americas"},
	{"America/Chicago", "Central Time (Chicago)", "Americas"},
	{"America/Denver", "Mountain Time (Denver)", "Americas"},
	{"America/Los_Angeles", "Pacific Time (Los Angeles)", "Americas"},
	{"America/Toronto", "Toronto", "Americas"},
	{"America/Sao_Paulo", "Sao Paulo", "Americas"},
	{"Asia/Tokyo", "Tokyo", "Asia"},
	{"Asia/Singapore", "Singapore", "Asia"},
	{"Australia/Sydney", "Sydney", "Oceania"},
}

var (
	once   sync.Once
	byID   map[string]Zone
	groups []ZoneGroup
)

func load() {
	once.Do(func() {
		byID = make(map[string]Zone, len(curated))
		byRegion := make(map[string][]Zone)
		for _, z := range curated {
			byID[z.ID] = z
			byRegion[z.Region] = append(byRegion[z.Region], z)
		}
		for region, zs := range byRegion {
			sort.SliceStable(zs, func(i, j int) bool { return zs[i].Label < zs[j].Label })
			groups = append(groups, ZoneGroup{Region: region, Zones: zs})
		}
		sort.Slice(groups, func(i, j int) bool { return groups[i].Region < groups[j].Region })
	})
}

// All returns the curated zones.
func All() []Zone {
	return append([]Zone(nil), curated...)
}

// Label returns the display label of id, or id itself when unknown.
func Label(id string) string {
	load()
	if z, ok := byID[id]; ok {
		return z.Label
	}
	return id
}

// Valid reports whether id is curated and known to the local tz database.
func Valid(id string) bool {
	load()
	if _, ok := byID[id]; !ok {
		return false
	}
	_, err := time.LoadLocation(id)
	return err == nil
}

// Groups returns the zones grouped by region, regions and labels sorted.
func Groups() []ZoneGroup {
	load()
	return groups
}
