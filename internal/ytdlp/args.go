// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ytdlp

// StdoutTarget makes yt-dlp write media to stdout.
const StdoutTarget = "-"

// The source URL always follows "--" so a value starting with a dash cannot be
// read as an option.

// InfoArgs dumps the metadata document of url.
func InfoArgs(url string) []string {
	return []string{"--dump-json", "--no-warnings", "--", url}
}

// ListArgs prints the human-readable format table of url.
func ListArgs(url string) []string {
	return []string{"-F", "--no-warnings", "--", url}
}

// DirectArgs relays a single format to stdout without post-processing.
func DirectArgs(url, formatID string) []string {
	return []string{"--no-warnings", "-f", formatID, "-o", StdoutTarget, "--", url}
}

// MergeSelector pairs a video-only format with the best audio, preferring m4a.
func MergeSelector(formatID string) string {
	return formatID + "+bestaudio[ext=m4a]/" + formatID + "+bestaudio"
}

// MergeArgs downloads formatID plus audio and muxes them into an MP4 at output.
// Intermediates keep the local mtime so the stale sweeper can age them.
func MergeArgs(url, formatID, ffmpeg, output string) []string {
	args := []string{"--no-warnings", "--no-mtime"}
	if ffmpeg != "" {
		args = append(args, "--ffmpeg-location", ffmpeg)
	}
	return append(args,
		"-f", MergeSelector(formatID),
		"--merge-output-format", "mp4",
		"-o", output,
		"--", url,
	)
}
