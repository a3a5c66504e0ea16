// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/vgrab/internal/formats"
)

// maxInspectOutput caps what is buffered from one inspection invocation.
const maxInspectOutput = 32 << 20

const (
	fallbackTitle  = "Unknown Title"
	fallbackAuthor = "Unknown Author"
)

// Metadata is the subset of the --dump-json document vgrab uses.
type Metadata struct {
	Title     string
	Author    string
	Thumbnail string
}

// Info is the result of inspecting a URL.
type Info struct {
	Metadata
	Formats []formats.Descriptor
}

// Client runs the downloader invocations vgrab needs.
type Client struct {
	runner         Runner
	ffmpeg         string
	inspectTimeout time.Duration
}

// NewClient wraps runner. ffmpeg is passed to merge runs; inspectTimeout
// bounds an inspection and 0 disables the bound.
func NewClient(runner Runner, ffmpeg string, inspectTimeout time.Duration) *Client {
	return &Client{runner: runner, ffmpeg: ffmpeg, inspectTimeout: inspectTimeout}
}

// Inspect fetches metadata and the format listing concurrently. The first
// failure cancels the other invocation.
func (c *Client) Inspect(ctx context.Context, url string) (*Info, error) {
	if c.inspectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.inspectTimeout)
		defer cancel()
	}

	var (
		meta    Metadata
		listing []byte
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := c.collect(gctx, Invocation{Mode: ModeInfo, Args: InfoArgs(url)})
		if err != nil {
			return err
		}
		meta, err = DecodeMetadata(out)
		return err
	})
	g.Go(func() error {
		out, err := c.collect(gctx, Invocation{Mode: ModeList, Args: ListArgs(url)})
		listing = out
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Info{Metadata: meta, Formats: formats.ParseListing(string(listing))}, nil
}

// Stream starts a direct run relaying formatID to the returned process's stdout.
func (c *Client) Stream(ctx context.Context, url, formatID string) (Process, error) {
	return c.runner.Start(ctx, Invocation{Mode: ModeDirect, Args: DirectArgs(url, formatID)})
}

// Merge downloads formatID with the best audio into output and waits for the
// tool to finish.
func (c *Client) Merge(ctx context.Context, url, formatID, output string) error {
	p, err := c.runner.Start(ctx, Invocation{Mode: ModeMerge, Args: MergeArgs(url, formatID, c.ffmpeg, output)})
	if err != nil {
		return err
	}
	// Progress output is not used; draining keeps the tool from blocking.
	_, _ = io.Copy(io.Discard, p.Stdout())
	return p.Wait()
}

func (c *Client) collect(ctx context.Context, inv Invocation) ([]byte, error) {
	p, err := c.runner.Start(ctx, inv)
	if err != nil {
		return nil, err
	}
	out, readErr := io.ReadAll(io.LimitReader(p.Stdout(), maxInspectOutput))
	_, _ = io.Copy(io.Discard, p.Stdout())
	if err := p.Wait(); err != nil {
		return nil, err
	}
	if readErr != nil {
		return nil, fmt.Errorf("%w: read %s output: %w", ErrToolFailed, inv.Mode, readErr)
	}
	return out, nil
}

type metadataDoc struct {
	Title     string `json:"title"`
	Uploader  string `json:"uploader"`
	Channel   string `json:"channel"`
	Thumbnail string `json:"thumbnail"`
}

// DecodeMetadata decodes a --dump-json document, applying the title and
// author fallbacks. Playlists print one document per entry; the first wins.
func DecodeMetadata(doc []byte) (Metadata, error) {
	var d metadataDoc
	if err := json.NewDecoder(bytes.NewReader(doc)).Decode(&d); err != nil {
		return Metadata{}, fmt.Errorf("%w: decode metadata: %w", ErrToolFailed, err)
	}
	m := Metadata{
		Title:     strings.TrimSpace(d.Title),
		Author:    firstNonEmpty(d.Uploader, d.Channel),
		Thumbnail: d.Thumbnail,
	}
	if m.Title == "" {
		m.Title = fallbackTitle
	}
	if m.Author == "" {
		m.Author = fallbackAuthor
	}
	return m, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
