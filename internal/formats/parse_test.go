// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleListing = `[info] Available formats for dQw4w9WgXcQ:
ID  EXT   RESOLUTION FPS CH │   FILESIZE   TBR PROTO │ VCODEC          VBR ACODEC      ABR ASR MORE INFO
────────────────────────────────────────────────────────────────────────────────────────────────────────────
sb0 mhtml 48x27        0    │                  mhtml │ images                                  storyboard
139 m4a   audio only      2 │    1.21MiB   49k https │ audio only          mp4a.40.5   49k 22k low, m4a_dash
140 m4a   audio only      2 │    3.27MiB  130k https │ audio only          mp4a.40.2  130k 44k medium, m4a_dash
251 webm  audio only      2 │    3.28MiB  130k https │ audio only          opus       130k 48k medium, webm_dash
18  mp4   640x360     25  2 │    8.83MiB  351k https │ avc1.42001E         mp4a.40.2       44k 360p
134 mp4   640x360     25    │    5.61MiB  223k https │ avc1.4d401e    223k video only          360p, mp4_dash
136 mp4   1280x720    25    │   16.81MiB  669k https │ avc1.4d401f    669k video only          720p, mp4_dash
137 mp4   1920x1080   25    │   60.45MiB 2405k https │ avc1.640028   2405k video only          1080p, mp4_dash
`

func TestParseLine_VideoOnlyScenario(t *testing.T) {
	d, ok := ParseLine("135 mp4 1280x720 720p, avc1, 45.00MiB")
	require.True(t, ok)

	assert.Equal(t, "135", d.ID)
	assert.Equal(t, "mp4", d.Container)
	assert.Equal(t, "1280x720", d.Resolution)
	assert.Equal(t, "h264", d.Codec)
	assert.Equal(t, KindVideoOnly, d.Kind)
	assert.Equal(t, "45.00MiB", d.Size)
	assert.Equal(t, int64(45*1024*1024), d.SizeBytes)
}

func TestParseLine_AudioOnly(t *testing.T) {
	d, ok := ParseLine("251 webm  audio only      2 │    3.28MiB  130k https │ audio only opus 130k 48k medium")
	require.True(t, ok)

	assert.Equal(t, "251", d.ID)
	assert.Equal(t, "webm", d.Container)
	assert.Equal(t, ResolutionAudio, d.Resolution)
	assert.Equal(t, KindAudio, d.Kind)
	assert.Equal(t, "opus", d.Codec)
	assert.Equal(t, "3.28MiB", d.Size)
}

func TestParseLine_CombinedWithAudioCodec(t *testing.T) {
	d, ok := ParseLine("18  mp4   640x360     25  2 │    8.83MiB  351k https │ avc1.42001E         mp4a.40.2       44k 360p")
	require.True(t, ok)

	assert.Equal(t, KindCombined, d.Kind, "a video codec paired with an audio codec is muxed")
	assert.Equal(t, "h264", d.Codec, "first codec token wins")
}

func TestParseLine_NoCodecIsCombined(t *testing.T) {
	d, ok := ParseLine("22 mp4 1280x720 720p")
	require.True(t, ok)
	assert.Equal(t, KindCombined, d.Kind)
	assert.Equal(t, CodecUnknown, d.Codec)
	assert.Equal(t, SizeUnknown, d.Size)
	assert.Zero(t, d.SizeBytes)
}

func TestParseLine_Malformed(t *testing.T) {
	for _, line := range []string{
		"",
		"   ",
		"ID  EXT   RESOLUTION",
		"[info] Available formats",
		"sb0 mhtml 48x27 storyboard",
		"────────────",
		"  140 m4a audio only",
	} {
		t.Run(line, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_, ok := ParseLine(line)
				assert.False(t, ok)
			})
		})
	}
}

func TestParseLine_UnknownResolution(t *testing.T) {
	d, ok := ParseLine("600 mp4 avc1 video only")
	require.True(t, ok)
	assert.Equal(t, ResolutionUnknown, d.Resolution)
	assert.Equal(t, KindVideoOnly, d.Kind)
}

func TestParseListing(t *testing.T) {
	descs := ParseListing(sampleListing)
	require.Len(t, descs, 7, "storyboard, header and separator rows are skipped")

	ids := make([]string, 0, len(descs))
	for _, d := range descs {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"139", "140", "251", "18", "134", "136", "137"}, ids)

	for _, d := range descs {
		if d.Resolution == ResolutionAudio {
			assert.Equal(t, KindAudio, d.Kind, "id %s", d.ID)
		} else {
			assert.NotEqual(t, KindAudio, d.Kind, "id %s", d.ID)
		}
	}
}

func TestParseListing_Empty(t *testing.T) {
	assert.Empty(t, ParseListing(""))
	assert.Empty(t, ParseListing("ERROR: something\n\n"))
}
