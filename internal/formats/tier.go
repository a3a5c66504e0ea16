// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package formats

// Tier is a target quality used to group and de-duplicate video formats.
type Tier struct {
	Label      string // e.g. "720p"
	Resolution string // canonical "WxH"
}

// Tiers is the fixed, ordered tier table. Selection walks it front to back.
var Tiers = []Tier{
	{Label: "144p", Resolution: "256x144"},
	{Label: "240p", Resolution: "426x240"},
	{Label: "360p", Resolution: "640x360"},
	{Label: "480p", Resolution: "854x480"},
	{Label: "720p", Resolution: "1280x720"},
	{Label: "1080p", Resolution: "1920x1080"},
	{Label: "1440p", Resolution: "2560x1440"},
	{Label: "2160p", Resolution: "3840x2160"},
}

// Quality bands reported to callers.
const (
	Band4K = "4K"
	BandHD = "HD"
	BandSD = "SD"
)

// Band maps a tier label to its display band.
func Band(label string) string {
	switch label {
	case "2160p":
		return Band4K
	case "1080p", "720p":
		return BandHD
	default:
		return BandSD
	}
}
