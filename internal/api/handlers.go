// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"errors"
	"net/http"

	"github.com/ManuGH/vgrab/internal/admission"
	"github.com/ManuGH/vgrab/internal/download"
	"github.com/ManuGH/vgrab/internal/formats"
	"github.com/ManuGH/vgrab/internal/log"
)

type formatsView struct {
	Video []formats.ResolvedFormat `json:"video"`
	Audio []formats.AudioFormat    `json:"audio"`
}

type videoInfoResponse struct {
	Title     string      `json:"title"`
	Author    string      `json:"author"`
	Thumbnail string      `json:"thumbnail"`
	Formats   formatsView `json:"formats"`
}

// handleVideoInfo implements POST /api/video-info.
func (s *Server) handleVideoInfo(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	req, err := decodeVideoInfo(r, s.cfg.MaxBodyBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}

	release, err := s.deps.Gate.TryAcquire(admission.ClassInspect)
	if err != nil {
		writeBusy(w, s.cfg.BusyRetryAfter)
		return
	}
	defer release()

	info, err := s.deps.Inspector.Inspect(r.Context(), req.URL)
	if err != nil {
		if r.Context().Err() == nil {
			logger.Warn().Err(err).Str(log.FieldEvent, "inspect.failed").Msg("failed to fetch video information")
		}
		writeError(w, http.StatusInternalServerError, "Failed to fetch video information")
		return
	}

	sel := formats.Select(info.Formats)
	resp := videoInfoResponse{
		Title:     info.Title,
		Author:    info.Author,
		Thumbnail: info.Thumbnail,
		Formats: formatsView{
			Video: nonNil(sel.Video),
			Audio: nonNil(sel.Audio),
		},
	}
	logger.Debug().
		Str(log.FieldEvent, "inspect.done").
		Int("video_formats", len(resp.Formats.Video)).
		Int("audio_formats", len(resp.Formats.Audio)).
		Msg("video information fetched")
	writeJSON(w, http.StatusOK, resp)
}

// handleStreamDownload implements POST /api/stream-download.
func (s *Server) handleStreamDownload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	req, err := decodeDownload(r, s.cfg.MaxBodyBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.URL == "" || req.FormatID == "" {
		writeError(w, http.StatusBadRequest, "URL and format ID are required")
		return
	}

	release, err := s.deps.Gate.TryAcquire(admission.ClassDownload)
	if err != nil {
		writeBusy(w, s.cfg.BusyRetryAfter)
		return
	}
	defer release()

	out, err := s.deps.Downloader.Serve(r.Context(), w, download.Request{
		SourceURL:  req.URL,
		FormatID:   req.FormatID,
		IsCombined: bool(req.IsCombined),
		Title:      req.Title,
	})
	if err == nil || out.Committed || errors.Is(err, download.ErrCancelled) {
		return
	}
	msg := "Download failed"
	if out.Path == download.PathMerge {
		msg = "Failed to stream video"
	}
	writeError(w, http.StatusInternalServerError, msg)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
