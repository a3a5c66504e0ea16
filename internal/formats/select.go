// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package formats

import (
	"slices"
	"sort"
)

// maxAudioFormats caps the emitted audio list.
const maxAudioFormats = 2

// ResolvedFormat is the de-duplicated video entry offered to callers.
type ResolvedFormat struct {
	ID               string `json:"id"`
	Quality          string `json:"quality"`
	QualityLabel     string `json:"qualityLabel"`
	Type             string `json:"type"`
	Size             string `json:"size"`
	SizeBytes        int64  `json:"sizeBytes"`
	DirectDownload   bool   `json:"canDownloadDirectly"`
	IsCombined       bool   `json:"isCombined"`
	SourceResolution string `json:"resolution"`
}

// AudioFormat is one emitted audio track.
type AudioFormat struct {
	ID           string `json:"id"`
	Quality      string `json:"quality"`
	QualityLabel string `json:"qualityLabel"`
	Type         string `json:"type"`
	Size         string `json:"size"`
	Codec        string `json:"codec"`
}

// Selection is the result of resolving a parsed listing.
type Selection struct {
	Video     []ResolvedFormat
	Audio     []AudioFormat
	BestAudio *Descriptor
}

// Select resolves descriptors into at most one format per tier plus a capped audio list.
func Select(descs []Descriptor) Selection {
	var audio []Descriptor
	groups := make(map[string][]Descriptor)
	for _, d := range descs {
		switch d.Kind {
		case KindAudio:
			audio = append(audio, d)
		default:
			if d.Resolution == ResolutionAudio || d.Resolution == ResolutionUnknown {
				continue
			}
			groups[d.Resolution] = append(groups[d.Resolution], d)
		}
	}

	best := BestAudio(audio)
	var bestSize int64
	if best != nil {
		bestSize = best.SizeBytes
	}

	sel := Selection{BestAudio: best}
	seen := make(map[string]struct{})
	for _, tier := range Tiers {
		group, ok := groups[tier.Resolution]
		if !ok || len(group) == 0 {
			continue
		}
		chosen := pickForTier(group)
		if _, dup := seen[chosen.ID]; dup {
			continue
		}
		seen[chosen.ID] = struct{}{}

		direct := chosen.Kind == KindCombined
		total := chosen.SizeBytes
		if !direct {
			total += bestSize
		}
		sel.Video = append(sel.Video, ResolvedFormat{
			ID:               chosen.ID,
			Quality:          Band(tier.Label),
			QualityLabel:     tier.Label,
			Type:             "Video",
			Size:             FormatSize(total),
			SizeBytes:        total,
			DirectDownload:   direct,
			IsCombined:       direct,
			SourceResolution: chosen.Resolution,
		})
	}

	sel.Audio = audioList(audio)
	return sel
}

// pickForTier prefers muxed formats, then the smallest size.
func pickForTier(group []Descriptor) Descriptor {
	sorted := slices.Clone(group)
	sort.SliceStable(sorted, func(i, j int) bool {
		ci, cj := sorted[i].Kind == KindCombined, sorted[j].Kind == KindCombined
		if ci != cj {
			return ci
		}
		return sorted[i].SizeBytes < sorted[j].SizeBytes
	})
	return sorted[0]
}

// BestAudio returns the largest aac/m4a track, or the largest audio track when
// none is preferred. Size stands in for bitrate. Nil when there is no audio.
func BestAudio(audio []Descriptor) *Descriptor {
	var preferred []Descriptor
	for _, a := range audio {
		if a.Codec == "aac" || a.Container == "m4a" {
			preferred = append(preferred, a)
		}
	}
	pool := preferred
	if len(pool) == 0 {
		pool = audio
	}
	if len(pool) == 0 {
		return nil
	}
	best := pool[0]
	for _, a := range pool[1:] {
		if a.SizeBytes > best.SizeBytes {
			best = a
		}
	}
	return &best
}

var audioCodecRank = map[string]int{"aac": 0, "opus": 1, "mp3": 2}

func audioList(audio []Descriptor) []AudioFormat {
	var eligible []Descriptor
	seen := make(map[string]struct{})
	for _, a := range audio {
		if _, ok := audioCodecRank[a.Codec]; !ok {
			continue
		}
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}
		eligible = append(eligible, a)
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return audioCodecRank[eligible[i].Codec] < audioCodecRank[eligible[j].Codec]
	})
	if len(eligible) > maxAudioFormats {
		eligible = eligible[:maxAudioFormats]
	}

	out := make([]AudioFormat, 0, len(eligible))
	for _, a := range eligible {
		af := AudioFormat{
			ID:           a.ID,
			Quality:      "128k",
			QualityLabel: "128kbps Standard",
			Type:         "Audio",
			Size:         FormatSize(a.SizeBytes),
			Codec:        a.Codec,
		}
		if a.Codec == "aac" {
			af.Quality = "320k"
			af.QualityLabel = "320kbps High Quality"
		}
		out = append(out, af)
	}
	return out
}
