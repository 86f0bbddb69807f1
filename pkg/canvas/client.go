// Package canvas talks to the canvas core service: space geometry
// lookup and section lifecycle. In development mode every mutation is
// logged and answered locally, so notebooks can run without a live
// canvas deployment.
package canvas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ovecast/ovecast/pkg/config"
	"github.com/ovecast/ovecast/pkg/errors"
	"github.com/ovecast/ovecast/pkg/httputil"
	"github.com/ovecast/ovecast/pkg/layout"
	"github.com/ovecast/ovecast/pkg/observability"
	"github.com/ovecast/ovecast/pkg/section"
)

// DefaultBounds is the space geometry assumed in development mode.
var DefaultBounds = layout.Bounds{W: 3840, H: 2160}

// Client is a canvas core API client.
type Client struct {
	core   string
	mode   config.Mode
	http   *http.Client
	logger *log.Logger
	nextID atomic.Int64
}

// NewClient creates a client for the canvas core at the given base URL.
func NewClient(core string, mode config.Mode, logger *log.Logger) *Client {
	return &Client{
		core:   core,
		mode:   mode,
		http:   httputil.NewClient(),
		logger: logger,
	}
}

// Core returns the canvas core base URL.
func (c *Client) Core() string { return c.core }

// Geometry fetches the pixel bounds of a space. Development mode
// answers with DefaultBounds without touching the network.
func (c *Client) Geometry(ctx context.Context, space string) (layout.Bounds, error) {
	if c.mode == config.ModeDevelopment {
		c.logger.Debug("using default geometry", "space", space, "w", DefaultBounds.W, "h", DefaultBounds.H)
		return DefaultBounds, nil
	}
	endpoint := fmt.Sprintf("%s/spaces/%s/geometry", c.core, url.PathEscape(space))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return layout.Bounds{}, errors.Wrap(errors.ErrCodeInternal, err, "failed to build geometry request")
	}
	observability.Canvas().OnRequest(ctx, http.MethodGet, endpoint)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.Canvas().OnError(ctx, http.MethodGet, endpoint, err)
		return layout.Bounds{}, errors.Wrap(errors.ErrCodeRemoteService, err, "failed to reach canvas core")
	}
	defer resp.Body.Close()
	observability.Canvas().OnResponse(ctx, http.MethodGet, endpoint, resp.StatusCode, time.Since(start))
	if err := httputil.CheckStatus(resp.StatusCode); err != nil {
		return layout.Bounds{}, errors.Wrap(errors.ErrCodeRemoteService, err,
			"geometry lookup for space %q failed", space)
	}
	var geo struct {
		W int `json:"w"`
		H int `json:"h"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&geo); err != nil {
		return layout.Bounds{}, errors.Wrap(errors.ErrCodeRemoteService, err, "failed to decode geometry response")
	}
	return layout.Bounds{W: geo.W, H: geo.H}, nil
}

// ClearSpace removes every section in a space.
func (c *Client) ClearSpace(ctx context.Context, space string) error {
	if c.mode == config.ModeDevelopment {
		c.logger.Info("would clear space", "space", space)
		return nil
	}
	endpoint := fmt.Sprintf("%s/sections?space=%s", c.core, url.QueryEscape(space))
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// CreateSection registers a section and returns the id the canvas core
// assigned to it.
func (c *Client) CreateSection(ctx context.Context, sec section.Section) (int, error) {
	if c.mode == config.ModeDevelopment {
		id := int(c.nextID.Add(1)) - 1
		c.logger.Info("would create section",
			"space", sec.Space, "id", id,
			"x", sec.X, "y", sec.Y, "w", sec.W, "h", sec.H,
			"url", sec.App.States.Load.URL)
		return id, nil
	}
	body, err := json.Marshal(sec)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, err, "failed to encode section")
	}
	var created struct {
		ID int `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, c.core+"/section", body, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// DeleteSection removes one section by id.
func (c *Client) DeleteSection(ctx context.Context, id int) error {
	if c.mode == config.ModeDevelopment {
		c.logger.Info("would delete section", "id", id)
		return nil
	}
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/sections/%d", c.core, id), nil, nil)
}

// LoadSection replaces any stale registration before creating sec, so
// re-running a cell never leaves two sections bound to the same
// output. The stale delete is best effort: the old section may already
// be gone, and a failed delete never blocks the create.
func (c *Client) LoadSection(ctx context.Context, sec section.Section, staleID int) (int, error) {
	if staleID >= 0 {
		if err := c.DeleteSection(ctx, staleID); err != nil {
			c.logger.Debug("stale section delete failed", "id", staleID, "err", err)
		}
	}
	return c.CreateSection(ctx, sec)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to build canvas request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	observability.Canvas().OnRequest(ctx, method, endpoint)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.Canvas().OnError(ctx, method, endpoint, err)
		return errors.Wrap(errors.ErrCodeRemoteService, err, "failed to reach canvas core")
	}
	defer resp.Body.Close()
	observability.Canvas().OnResponse(ctx, method, endpoint, resp.StatusCode, time.Since(start))
	if err := httputil.CheckStatus(resp.StatusCode); err != nil {
		return errors.Wrap(errors.ErrCodeRemoteService, err,
			"canvas core rejected %s %s", method, endpoint)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrap(errors.ErrCodeRemoteService, err, "failed to decode canvas response")
		}
	}
	return nil
}
