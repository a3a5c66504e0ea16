// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
)

// flexBool accepts JSON true as well as the string "true". Any other value,
// including unknown strings, is false.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	*b = flexBool(parseFlexBool(strings.Trim(string(data), `"`)))
	return nil
}

func parseFlexBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

type videoInfoRequest struct {
	URL string `json:"url"`
}

type downloadRequest struct {
	URL        string   `json:"url"`
	FormatID   string   `json:"formatId"`
	IsCombined flexBool `json:"isCombined"`
	Title      string   `json:"title"`
}

func isForm(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/x-www-form-urlencoded" || mt == "multipart/form-data"
}

// decodeJSON decodes a JSON body into dst. An empty body leaves dst zero.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func parseForm(r *http.Request, maxBytes int64) error {
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		return r.ParseMultipartForm(maxBytes)
	}
	return r.ParseForm()
}

func decodeVideoInfo(r *http.Request, maxBytes int64) (videoInfoRequest, error) {
	var req videoInfoRequest
	if isForm(r) {
		if err := parseForm(r, maxBytes); err != nil {
			return req, err
		}
		req.URL = r.PostFormValue("url")
	} else if err := decodeJSON(r, &req); err != nil {
		return req, err
	}
	req.URL = strings.TrimSpace(req.URL)
	return req, nil
}

func decodeDownload(r *http.Request, maxBytes int64) (downloadRequest, error) {
	var req downloadRequest
	if isForm(r) {
		if err := parseForm(r, maxBytes); err != nil {
			return req, err
		}
		req = downloadRequest{
			URL:        r.PostFormValue("url"),
			FormatID:   r.PostFormValue("formatId"),
			IsCombined: flexBool(parseFlexBool(r.PostFormValue("isCombined"))),
			Title:      r.PostFormValue("title"),
		}
	} else if err := decodeJSON(r, &req); err != nil {
		return req, err
	}
	req.URL = strings.TrimSpace(req.URL)
	req.FormatID = strings.TrimSpace(req.FormatID)
	return req, nil
}
