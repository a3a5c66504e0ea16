// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package formats turns yt-dlp format listings into descriptors and resolves
// them into one representative format per quality tier.
package formats

// Kind classifies what a format stream carries.
type Kind int

const (
	KindCombined Kind = iota
	KindVideoOnly
	KindAudio
)

func (k Kind) String() string {
	switch k {
	case KindCombined:
		return "combined"
	case KindVideoOnly:
		return "video-only"
	case KindAudio:
		return "audio"
	default:
		return "unknown"
	}
}

const (
	ResolutionAudio   = "audio"
	ResolutionUnknown = "unknown"
	ContainerUnknown  = "unknown"
	SizeUnknown       = "N/A"
	CodecUnknown      = "unknown"
)

// Descriptor is one parsed row of a format listing.
type Descriptor struct {
	ID         string
	Container  string
	Resolution string // "WxH", "audio" or "unknown"
	Size       string // raw size token, or "N/A"
	SizeBytes  int64
	Kind       Kind
	Codec      string
}
