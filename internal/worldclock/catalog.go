package worldclock

import "strings"

// Info describes a zone for display.
type Info struct {
	City    string `json:"city"`
	Zone    string `json:"zone"`
	Country string `json:"country"`
}

// DefaultZones is the zone list for fresh installs and Reset.
var DefaultZones = []string{
	"Asia/Kolkata",
	"America/New_York",
	"Europe/London",
	"Asia/Tokyo",
	"Australia/Sydney",
	"Asia/Dubai",
}

// popular is offered to clients as the suggestion list. Any IANA name is
// accepted by Add.
var popular = []Info{
	{"New Delhi", "Asia/Kolkata", "India"},
	{"New York", "America/New_York", "USA"},
	{"London", "Europe/London", "UK"},
	{"Tokyo", "Asia/Tokyo", "Japan"},
	{"Sydney", "Australia/Sydney", "Australia"},
	{"Dubai", "Asia/Dubai", "UAE"},
	{"Paris", "Europe/Paris", "France"},
	{"Singapore", "Asia/Singapore", "Singapore"},
	{"Los Angeles", "America/Los_Angeles", "USA"},
	{"Hong Kong", "Asia/Hong_Kong", "China"},
	{"Moscow", "Europe/Moscow", "Russia"},
	{"São Paulo", "America/Sao_Paulo", "Brazil"},
	{"Berlin", "Europe/Berlin", "Germany"},
	{"Toronto", "America/Toronto", "Canada"},
	{"Seoul", "Asia/Seoul", "South Korea"},
	{"Bangkok", "Asia/Bangkok", "Thailand"},
	{"Cairo", "Africa/Cairo", "Egypt"},
	{"Jakarta", "Asia/Jakarta", "Indonesia"},
	{"Amsterdam", "Europe/Amsterdam", "Netherlands"},
	{"Istanbul", "Europe/Istanbul", "Turkey"},
}

// Popular returns the suggested zones.
func Popular() []Info {
	return append([]Info(nil), popular...)
}

// Lookup returns display info for zone. Zones outside the suggestion list
// get a city derived from the last path element ("America/Argentina/Buenos_Aires"
// becomes "Buenos Aires") and no country.
func Lookup(zone string) Info {
	for _, info := range popular {
		if info.Zone == zone {
			return info
		}
	}
	city := zone
	if i := strings.LastIndexByte(zone, '/'); i >= 0 {
		city = zone[i+1:]
	}
	return Info{City: strings.ReplaceAll(city, "_", " "), Zone: zone}
}
