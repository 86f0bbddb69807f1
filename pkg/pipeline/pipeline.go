// Package pipeline drives a cell render end to end: placement
// validation, geometry resolution, per-output formatting, asset
// persistence, remote registration and document emission.
//
// # Architecture
//
// A Runner owns the canvas client and the asset store. RenderCell is
// the single entry point a host calls per executed cell: placement
// errors abort the whole cell, while a failure in one output only
// skips that output so the remaining ones still reach the canvas.
package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ovecast/ovecast/pkg/asset"
	"github.com/ovecast/ovecast/pkg/canvas"
	"github.com/ovecast/ovecast/pkg/config"
	"github.com/ovecast/ovecast/pkg/content"
	"github.com/ovecast/ovecast/pkg/layout"
	"github.com/ovecast/ovecast/pkg/observability"
	"github.com/ovecast/ovecast/pkg/section"
	"github.com/ovecast/ovecast/pkg/session"
)

// Output is one captured cell output: its MIME type, the display hint
// the host attached, the raw payload and any captured metadata.
type Output struct {
	MIME string              `json:"mime"`
	Hint content.DisplayHint `json:"hint"`
	Data string              `json:"data"`
	Meta content.Metadata    `json:"meta"`
}

// ClassifiedOutput is an output whose content kind is already
// resolved, either by Classify or by a capture frontend that
// classified at the source.
type ClassifiedOutput struct {
	Index int              `json:"idx"`
	Type  content.DataType `json:"type"`
	Data  string           `json:"data"`
	Meta  content.Metadata `json:"meta"`
}

// Rendered reports one successfully registered output.
type Rendered struct {
	Index      int         `json:"idx"`
	Key        section.Key `json:"key"`
	SectionID  int         `json:"section_id"`
	ControlURL string      `json:"control_url"`
}

// Runner executes cell renders against a canvas deployment.
type Runner struct {
	canvas *canvas.Client
	store  *asset.Store
	logger *log.Logger
}

// NewRunner wires a runner from its collaborators.
func NewRunner(c *canvas.Client, store *asset.Store, logger *log.Logger) *Runner {
	return &Runner{canvas: c, store: store, logger: logger}
}

// Start opens a session: validates the configuration, resolves the
// space geometry and, when requested, clears the space and the local
// asset directory of previous runs.
func (r *Runner) Start(ctx context.Context, cfg session.Config) (*session.Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bounds, err := r.canvas.Geometry(ctx, cfg.Space)
	if err != nil {
		return nil, err
	}
	if cfg.RemoveOnStart {
		if err := r.canvas.ClearSpace(ctx, cfg.Space); err != nil {
			return nil, err
		}
		if err := r.store.Clear(); err != nil {
			return nil, err
		}
	}
	sess := session.New(cfg, bounds)
	r.logger.Info("session started",
		"session", sess.ID, "space", cfg.Space,
		"rows", cfg.Rows, "cols", cfg.Cols,
		"w", bounds.W, "h", bounds.H)
	return sess, nil
}

// RenderCell renders one executed cell. It validates the placement,
// resolves the cell rectangle, then formats, persists and registers
// each classifiable output in order. Placement failures abort the
// cell; a single output's failure is logged and skipped.
func (r *Runner) RenderCell(ctx context.Context, sess *session.Session, args layout.PlacementArgs, outputs []Output) ([]Rendered, error) {
	kept := make([]ClassifiedOutput, 0, len(outputs))
	for i, out := range outputs {
		dt, ok := content.Classify(out.MIME, out.Hint, out.Data)
		if !ok {
			continue
		}
		kept = append(kept, ClassifiedOutput{Index: i, Type: dt, Data: out.Data, Meta: out.Meta})
	}
	return r.RenderClassified(ctx, sess, args, kept)
}

// RenderClassified renders outputs whose content kinds are already
// resolved. Output indices within the cell follow list order, so the
// caller's filtering decides how the cell rectangle is shared.
func (r *Runner) RenderClassified(ctx context.Context, sess *session.Session, args layout.PlacementArgs, outputs []ClassifiedOutput) ([]Rendered, error) {
	start := time.Now()
	observability.Render().OnCellStart(ctx, sess.Config.Space, args.Cell())
	results, err := r.renderClassified(ctx, sess, args, outputs)
	observability.Render().OnCellComplete(ctx, sess.Config.Space, args.Cell(), len(results), time.Since(start), err)
	return results, err
}

func (r *Runner) renderClassified(ctx context.Context, sess *session.Session, args layout.PlacementArgs, outputs []ClassifiedOutput) ([]Rendered, error) {
	mode, err := layout.Validate(args)
	if err != nil {
		return nil, err
	}
	rect, err := layout.Resolve(args, mode, sess.Bounds, sess.Config.Rows, sess.Config.Cols)
	if err != nil {
		return nil, err
	}
	split := args.Split
	if split == "" {
		split = sess.Config.Split
	}
	axis, err := layout.SplitAxisFor(split, rect)
	if err != nil {
		return nil, err
	}

	builder := section.NewBuilder(r.canvas.Core(), r.store)
	cellNo := args.Cell()
	var results []Rendered
	for i, out := range outputs {
		key := section.Key{Cell: cellNo, Output: i}
		sec, err := builder.Build(section.Input{
			Data:        out.Data,
			Type:        out.Type,
			Key:         key,
			OutputCount: len(outputs),
			Rect:        rect,
			Axis:        axis,
			Space:       sess.Config.Space,
			Meta:        out.Meta,
		})
		if err != nil {
			r.logger.Warn("skipping output", "key", key.String(), "type", out.Type, "err", err)
			observability.Render().OnOutputSkipped(ctx, sess.Config.Space, cellNo, i, err)
			continue
		}
		staleID := -1
		if prev, ok := sess.Lookup(key); ok {
			staleID = prev.ID
		}
		id, err := r.canvas.LoadSection(ctx, sec, staleID)
		if err != nil {
			r.logger.Warn("skipping output", "key", key.String(), "type", out.Type, "err", err)
			observability.Render().OnOutputSkipped(ctx, sess.Config.Space, cellNo, i, err)
			continue
		}
		reg := section.Registered{ID: id, Data: sec}
		sess.Bind(key, reg)
		results = append(results, Rendered{
			Index:      out.Index,
			Key:        key,
			SectionID:  id,
			ControlURL: reg.ControlURL(),
		})
	}

	r.emitDocuments(sess)
	return results, nil
}

// emitDocuments refreshes the session's derived artifacts. Emission is
// best effort: a write failure never undoes registrations.
func (r *Runner) emitDocuments(sess *session.Session) {
	sections := sess.Sections()
	if data, err := section.Project(sess.Config.Space, sections); err != nil {
		r.logger.Warn("failed to emit project manifest", "err", err)
	} else if err := r.store.WriteDocument("project.json", data); err != nil {
		r.logger.Warn("failed to write project manifest", "err", err)
	}
	if sess.Config.MultiController {
		if data, err := section.Controller(sections); err != nil {
			r.logger.Warn("failed to emit controller page", "err", err)
		} else if err := r.store.WriteDocument("controller.html", data); err != nil {
			r.logger.Warn("failed to write controller page", "err", err)
		}
	}
	if sess.Config.Mode == config.ModeDevelopment {
		if data, err := section.Overview(sess.Config.Space, sess.Bounds, sections); err != nil {
			r.logger.Warn("failed to emit overview page", "err", err)
		} else if err := r.store.WriteDocument("overview.html", data); err != nil {
			r.logger.Warn("failed to write overview page", "err", err)
		}
	}
}
