package section

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ovecast/ovecast/pkg/content"
	"github.com/ovecast/ovecast/pkg/errors"
	"github.com/ovecast/ovecast/pkg/layout"
)

// projectMetadata mirrors the canvas project manifest's metadata block.
type projectMetadata struct {
	Authors      string   `json:"authors"`
	DefaultMode  string   `json:"default_mode"`
	Description  string   `json:"description"`
	Name         string   `json:"name"`
	Publications []string `json:"publications"`
	Tags         []string `json:"tags"`
	Thumbnail    string   `json:"thumbnail"`
}

type projectManifest struct {
	HasVideos bool            `json:"HasVideos"`
	Metadata  projectMetadata `json:"Metadata"`
	Sections  []Section       `json:"Sections"`
}

// Project renders the project.json manifest covering the registered
// sections, ordered by key.
func Project(space string, sections map[Key]Registered) ([]byte, error) {
	manifest := projectManifest{
		Metadata: projectMetadata{
			DefaultMode:  "run",
			Name:         space,
			Publications: []string{},
			Tags:         []string{},
		},
		Sections: []Section{},
	}
	for _, k := range SortedKeys(sections) {
		manifest.Sections = append(manifest.Sections, sections[k].Data)
	}
	out, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to encode project manifest")
	}
	return out, nil
}

// Controller renders the controller.html page: one navigation button
// per registered section, starting on the section with the lowest
// remote id.
func Controller(sections map[Key]Registered) ([]byte, error) {
	var nav strings.Builder
	startURL := ""
	startID := -1
	for _, k := range SortedKeys(sections) {
		reg := sections[k]
		url := reg.ControlURL()
		fmt.Fprintf(&nav, "<li><button onclick=\"changeContent('%s')\">Cell %s</button></li>\n", url, k.Label())
		if startID < 0 || reg.ID < startID {
			startID = reg.ID
			startURL = url
		}
	}
	page := content.ControllerTemplate()
	page = strings.ReplaceAll(page, "%%content%%", strings.TrimRight(nav.String(), "\n"))
	page = strings.ReplaceAll(page, "%%start_url%%", startURL)
	return []byte(page), nil
}

// Overview renders the overview.html page: a scaled map of the space
// with one box per registered section.
func Overview(space string, bounds layout.Bounds, sections map[Key]Registered) ([]byte, error) {
	secs := make([]Section, 0, len(sections))
	for _, k := range SortedKeys(sections) {
		secs = append(secs, sections[k].Data)
	}
	boundsJSON, err := json.Marshal(bounds)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to encode bounds")
	}
	secsJSON, err := json.Marshal(secs)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to encode sections")
	}
	page := content.OverviewTemplate()
	page = strings.Replace(page, `const space = "";`, fmt.Sprintf("const space = %q;", space), 1)
	page = strings.Replace(page, "const bounds = {};", fmt.Sprintf("const bounds = %s;", boundsJSON), 1)
	page = strings.Replace(page, "const sections = [];", fmt.Sprintf("const sections = %s;", secsJSON), 1)
	return []byte(page), nil
}
