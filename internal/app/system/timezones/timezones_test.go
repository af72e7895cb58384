package timezones

import "testing"

func TestAll(t *testing.T) {
	zones := All()
	if len(zones) == 0 {
		t.Fatal("All() returned empty zones list")
	}
	for _, z := range zones {
		if z.ID == "" || z.Label == "" || z.Region == "" {
			t.Errorf("incomplete zone %+v", z)
		}
	}
}

func TestLabel(t *testing.T) {
	if got := Label("Europe/Berlin"); got == "" || got == "Europe/Berlin" {
		t.Errorf("Label(Europe/Berlin) = %q", got)
	}
	if got := Label("Invalid/Timezone"); got != "Invalid/Timezone" {
		t.Errorf("Label of unknown zone = %q, want the id back", got)
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"Europe/Berlin", true},
		{"UTC", true},
		{"America/New_York", true},
		{"Invalid/Timezone", false},
		{"", false},
		{"Local", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := Valid(tt.id); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestGroupsSorted(t *testing.T) {
	groups := Groups()
	if len(groups) == 0 {
		t.Fatal("Groups() returned nothing")
	}
	for i := 1; i < len(groups); i++ {
		if groups[i].Region < groups[i-1].Region {
			t.Errorf("groups not sorted: %q after %q", groups[i].Region, groups[i-1].Region)
		}
	}
	for _, g := range groups {
		for i := 1; i < len(g.Zones); i++ {
			if g.Zones[i].Label < g.Zones[i-1].Label {
				t.Errorf("zones in %q not sorted: %q after %q", g.Region, g.Zones[i].Label, g.Zones[i-1].Label)
			}
		}
	}
}
