// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package formats

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect_CombinedBeatsSmallerVideoOnly(t *testing.T) {
	descs := []Descriptor{
		{ID: "137", Container: "mp4", Resolution: "1920x1080", SizeBytes: 90 << 20, Kind: KindVideoOnly, Codec: "h264"},
		{ID: "37", Container: "mp4", Resolution: "1920x1080", SizeBytes: 150 << 20, Kind: KindCombined, Codec: "h264"},
	}

	sel := Select(descs)
	require.Len(t, sel.Video, 1)
	assert.Equal(t, "37", sel.Video[0].ID)
	assert.True(t, sel.Video[0].DirectDownload)
	assert.Equal(t, BandHD, sel.Video[0].Quality)
	assert.Equal(t, "1080p", sel.Video[0].QualityLabel)
	assert.Equal(t, int64(150<<20), sel.Video[0].SizeBytes)
}

func TestSelect_SmallestWithinKind(t *testing.T) {
	descs := []Descriptor{
		{ID: "398", Resolution: "1280x720", SizeBytes: 30 << 20, Kind: KindVideoOnly},
		{ID: "136", Resolution: "1280x720", SizeBytes: 20 << 20, Kind: KindVideoOnly},
		{ID: "247", Resolution: "1280x720", SizeBytes: 25 << 20, Kind: KindVideoOnly},
	}
	sel := Select(descs)
	require.Len(t, sel.Video, 1)
	assert.Equal(t, "136", sel.Video[0].ID)
	assert.False(t, sel.Video[0].DirectDownload)
}

func TestSelect_VideoOnlyAddsBestAudioSize(t *testing.T) {
	descs := []Descriptor{
		{ID: "136", Resolution: "1280x720", SizeBytes: 20 << 20, Kind: KindVideoOnly},
		{ID: "140", Container: "m4a", Resolution: ResolutionAudio, SizeBytes: 3 << 20, Kind: KindAudio, Codec: "aac"},
		{ID: "251", Container: "webm", Resolution: ResolutionAudio, SizeBytes: 4 << 20, Kind: KindAudio, Codec: "opus"},
	}
	sel := Select(descs)
	require.NotNil(t, sel.BestAudio)
	assert.Equal(t, "140", sel.BestAudio.ID, "aac is preferred even when opus is larger")

	require.Len(t, sel.Video, 1)
	assert.Equal(t, int64(23<<20), sel.Video[0].SizeBytes)
	assert.Equal(t, "23.00 MB", sel.Video[0].Size)
}

func TestSelect_NoDuplicateIDs(t *testing.T) {
	// A single format id can show up under two resolutions in odd listings.
	descs := []Descriptor{
		{ID: "22", Resolution: "640x360", SizeBytes: 10, Kind: KindCombined},
		{ID: "22", Resolution: "1280x720", SizeBytes: 10, Kind: KindCombined},
		{ID: "136", Resolution: "1280x720", SizeBytes: 5, Kind: KindVideoOnly},
	}
	sel := Select(descs)

	seen := map[string]int{}
	for _, v := range sel.Video {
		seen[v.ID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "id %s emitted %d times", id, n)
	}
	require.Len(t, sel.Video, 1)
	assert.Equal(t, "360p", sel.Video[0].QualityLabel)
}

func TestSelect_IgnoresNonCanonicalResolutions(t *testing.T) {
	descs := []Descriptor{
		{ID: "1", Resolution: "1280x718", SizeBytes: 10, Kind: KindCombined},
		{ID: "2", Resolution: ResolutionUnknown, SizeBytes: 10, Kind: KindCombined},
	}
	assert.Empty(t, Select(descs).Video)
}

func TestSelect_SampleListing(t *testing.T) {
	sel := Select(ParseListing(sampleListing))

	want := []ResolvedFormat{
		{ID: "18", Quality: BandSD, QualityLabel: "360p", Type: "Video", Size: FormatSize(ParseSize("8.83MiB")), SizeBytes: ParseSize("8.83MiB"), DirectDownload: true, IsCombined: true, SourceResolution: "640x360"},
		{ID: "136", Quality: BandHD, QualityLabel: "720p", Type: "Video", Size: FormatSize(ParseSize("16.81MiB") + ParseSize("3.27MiB")), SizeBytes: ParseSize("16.81MiB") + ParseSize("3.27MiB"), SourceResolution: "1280x720"},
		{ID: "137", Quality: BandHD, QualityLabel: "1080p", Type: "Video", Size: FormatSize(ParseSize("60.45MiB") + ParseSize("3.27MiB")), SizeBytes: ParseSize("60.45MiB") + ParseSize("3.27MiB"), SourceResolution: "1920x1080"},
	}
	if diff := cmp.Diff(want, sel.Video); diff != "" {
		t.Errorf("Select().Video mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, sel.Audio, 2)
	assert.Equal(t, "139", sel.Audio[0].ID)
	assert.Equal(t, "140", sel.Audio[1].ID)
	assert.Equal(t, "320k", sel.Audio[0].Quality)
}

func TestAudioList_PrefersCodecOrderAndDedupes(t *testing.T) {
	audio := []Descriptor{
		{ID: "251", Codec: "opus", Kind: KindAudio, SizeBytes: 4},
		{ID: "251", Codec: "opus", Kind: KindAudio, SizeBytes: 4},
		{ID: "600", Codec: "unknown", Kind: KindAudio, SizeBytes: 9},
		{ID: "140", Codec: "aac", Kind: KindAudio, SizeBytes: 3},
		{ID: "9", Codec: "mp3", Kind: KindAudio, SizeBytes: 1},
	}
	list := audioList(audio)
	require.Len(t, list, 2)
	assert.Equal(t, "140", list[0].ID)
	assert.Equal(t, "251", list[1].ID)
	assert.Equal(t, "128kbps Standard", list[1].QualityLabel)
}

func TestBestAudio_FallbackToLargest(t *testing.T) {
	audio := []Descriptor{
		{ID: "249", Container: "webm", Codec: "opus", SizeBytes: 1},
		{ID: "251", Container: "webm", Codec: "opus", SizeBytes: 5},
	}
	best := BestAudio(audio)
	require.NotNil(t, best)
	assert.Equal(t, "251", best.ID)

	assert.Nil(t, BestAudio(nil))
}

func TestBand(t *testing.T) {
	assert.Equal(t, Band4K, Band("2160p"))
	assert.Equal(t, BandHD, Band("1080p"))
	assert.Equal(t, BandHD, Band("720p"))
	assert.Equal(t, BandSD, Band("1440p"))
	assert.Equal(t, BandSD, Band("144p"))
}
