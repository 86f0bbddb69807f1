package section

import (
	"fmt"

	"github.com/ovecast/ovecast/pkg/asset"
	"github.com/ovecast/ovecast/pkg/content"
	"github.com/ovecast/ovecast/pkg/errors"
	"github.com/ovecast/ovecast/pkg/layout"
)

// Builder turns classified cell output into persisted assets and
// canvas section payloads.
type Builder struct {
	core  string
	store *asset.Store
}

// NewBuilder creates a builder registering sections against the given
// canvas core URL and persisting assets through store.
func NewBuilder(core string, store *asset.Store) *Builder {
	return &Builder{core: core, store: store}
}

// Input is one output's worth of work for Build.
type Input struct {
	Data        string
	Type        content.DataType
	Key         Key
	OutputCount int
	Rect        layout.Rect
	Axis        layout.SplitAxis
	Space       string
	Meta        content.Metadata
}

// Build formats the payload, persists it as an asset and returns the
// section occupying the output's slice of the cell rectangle. Media
// payloads skip formatting templates and pass their source URL
// through to the asset store directly.
func (b *Builder) Build(in Input) (Section, error) {
	formatted, err := content.Format(in.Data, in.Type, in.Meta)
	if err != nil {
		return Section{}, err
	}
	if in.Type == content.Markdown {
		if err := b.store.EnsureMarkdownCSS(); err != nil {
			return Section{}, err
		}
	}
	name, err := b.store.Write(formatted, in.Key.Cell, in.Key.Output, in.Type)
	if err != nil {
		return Section{}, err
	}
	app, err := content.AppFor(in.Type)
	if err != nil {
		return Section{}, err
	}
	sub := layout.Split(in.Rect, in.Axis, in.Key.Output, in.OutputCount)
	if sub.W <= 0 || sub.H <= 0 {
		return Section{}, errors.New(errors.ErrCodeInvalidCellConfig,
			"cell %d leaves no room for output %d", in.Key.Cell, in.Key.Output)
	}
	return Section{
		App: AppRef{
			States: AppStates{Load: LoadState{URL: b.store.URL(name)}},
			URL:    fmt.Sprintf("%s/app/%s", b.core, app),
		},
		H:     sub.H,
		W:     sub.W,
		X:     sub.X,
		Y:     sub.Y,
		Space: in.Space,
	}, nil
}
