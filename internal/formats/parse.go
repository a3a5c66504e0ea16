// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package formats

import (
	"bufio"
	"regexp"
	"strings"
)

const (
	markerAudioOnly = "audio only"
	markerVideoOnly = "video only"
)

var (
	idRe         = regexp.MustCompile(`^(\d+)`)
	containerRe  = regexp.MustCompile(`^\d+\s+(\S+)`)
	resolutionRe = regexp.MustCompile(`(\d+x\d+)`)
	// RE2 has no lookahead, so the trailing boundary is consumed and group 1 is used.
	sizeTokenRe = regexp.MustCompile(`(?i)(\d+\.?\d*\s*[KMGT]?i?B)(?:\s|$)`)
)

// codecTokens is checked in order; the first substring hit wins.
var codecTokens = []struct {
	token string
	codec string
}{
	{"avc1", "h264"},
	{"vp9", "vp9"},
	{"av01", "av1"},
	{"mp4a", "aac"},
	{"opus", "opus"},
	{"mp3", "mp3"},
}

var (
	videoCodecTokens = []string{"avc1", "vp9", "av01"}
	audioCodecTokens = []string{"mp4a", "opus", "mp3"}
)

// ParseListing parses the multi-line table printed by `yt-dlp -F`.
// Lines that do not start with a numeric format id are skipped.
func ParseListing(out string) []Descriptor {
	var descs []Descriptor
	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if d, ok := ParseLine(sc.Text()); ok {
			descs = append(descs, d)
		}
	}
	return descs
}

// ParseLine parses one listing row. ok is false for header, separator and
// otherwise malformed lines.
func ParseLine(line string) (Descriptor, bool) {
	line = strings.TrimRight(line, "\r")
	if line == "" || line[0] < '0' || line[0] > '9' {
		return Descriptor{}, false
	}
	clean := strings.TrimSpace(line)

	m := idRe.FindStringSubmatch(clean)
	if m == nil {
		return Descriptor{}, false
	}
	d := Descriptor{
		ID:         m[1],
		Container:  ContainerUnknown,
		Resolution: ResolutionUnknown,
		Size:       SizeUnknown,
		Codec:      CodecUnknown,
	}

	if cm := containerRe.FindStringSubmatch(clean); cm != nil {
		d.Container = cm[1]
	}

	audioOnly := strings.Contains(clean, markerAudioOnly)
	if audioOnly {
		d.Resolution = ResolutionAudio
	} else if rm := resolutionRe.FindStringSubmatch(clean); rm != nil {
		d.Resolution = rm[1]
	}

	if sm := sizeTokenRe.FindStringSubmatch(clean); sm != nil {
		d.Size = sm[1]
	}
	d.SizeBytes = ParseSize(d.Size)

	for _, ct := range codecTokens {
		if strings.Contains(clean, ct.token) {
			d.Codec = ct.codec
			break
		}
	}

	switch {
	case audioOnly:
		d.Kind = KindAudio
	case strings.Contains(clean, markerVideoOnly):
		d.Kind = KindVideoOnly
	case containsAny(clean, videoCodecTokens) && !containsAny(clean, audioCodecTokens):
		d.Kind = KindVideoOnly
	default:
		d.Kind = KindCombined
	}

	return d, true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
