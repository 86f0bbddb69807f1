package content

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ovecast/ovecast/pkg/errors"
)

//go:embed templates
var templatesFS embed.FS

// template reads an embedded substitution template. Templates carry
// %%marker%% placeholders replaced verbatim; they are not html/template
// documents because payloads are trusted notebook output that must not
// be escaped twice.
func template(name string) string {
	data, err := templatesFS.ReadFile("templates/" + name)
	if err != nil {
		// Embedded files are fixed at compile time.
		panic(fmt.Sprintf("missing embedded template %s: %v", name, err))
	}
	return string(data)
}

// MarkdownCSS returns the stylesheet served alongside markdown assets.
func MarkdownCSS() []byte {
	data, _ := templatesFS.ReadFile("templates/markdown.css")
	return data
}

// ControllerTemplate returns the controller page skeleton.
func ControllerTemplate() string { return template("controller_format.html") }

// OverviewTemplate returns the development-mode overview page skeleton.
func OverviewTemplate() string { return template("overview.html") }

// sourceAttr matches the src attribute of an embedded media element.
var sourceAttr = regexp.MustCompile(`src="([^"]+)"`)

// styleBlock matches inline style blocks emitted by dataframe renderers.
var styleBlock = regexp.MustCompile(`(?s)<style .*>.*</style>`)

var (
	markdownOnce     sync.Once
	markdownRenderer goldmark.Markdown
)

// getMarkdown returns the shared goldmark instance. The configuration
// never changes and goldmark parsers are safe to share.
func getMarkdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownRenderer = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return markdownRenderer
}

// Metadata carries per-output metadata the host captured alongside the
// payload. GeoJSON outputs use URLTemplate and BasemapID to resolve
// their basemap tile source.
type Metadata struct {
	URLTemplate string `json:"url_template,omitempty"`
	BasemapID   string `json:"basemap_id,omitempty"`
}

// Format transforms a raw payload into the document persisted for its
// content kind. Image kinds pass through untouched (the asset store
// decodes them); media kinds reduce to their embedded source URL.
// A formatting failure is fatal to this single output only.
func Format(data string, dt DataType, meta Metadata) (string, error) {
	switch dt {
	case Audio, Video:
		return extractSource(data)
	case DataFrame:
		return formatDataFrame(data), nil
	case HTML:
		return formatHTML(data), nil
	case LaTeX:
		return formatLaTeX(data), nil
	case Markdown:
		return formatMarkdown(data)
	case JSON:
		return formatJSON(data)
	case GeoJSON:
		return formatGeoJSON(data, meta)
	default:
		return data, nil
	}
}

// extractSource pulls the source URL out of an audio/video embed.
func extractSource(data string) (string, error) {
	m := sourceAttr.FindStringSubmatch(data)
	if m == nil {
		return "", errors.New(errors.ErrCodeUnsupportedData, "media output has no source url")
	}
	return m[1], nil
}

// formatDataFrame strips the benchmark-table inline styling emitted by
// dataframe renderers and wraps the table into the fixed stylesheet
// document.
func formatDataFrame(html string) string {
	html = strings.ReplaceAll(html, `border="1" `, "")
	html = strings.ReplaceAll(html, ` style="text-align: right;"`, "")
	html = styleBlock.ReplaceAllString(html, "")
	return strings.Replace(template("dataframe_format.html"), "%%replace%%", html, 1)
}

// formatHTML wraps an HTML fragment into a full document. Payloads that
// already are full documents pass through unchanged.
func formatHTML(html string) string {
	const doctype = "<!DOCTYPE html>\n<html lang=\"en\">"
	if len(html) > len(doctype) && html[:len(doctype)] == doctype {
		return html
	}
	return strings.Replace(template("html_format.html"), "%%replace%%", html, 1)
}

// formatLaTeX normalizes notebook LaTeX output and embeds it into a
// MathJax-loading document. Display-style markers are dropped and
// double-escaped backslashes collapsed; bare $ delimiters are promoted
// to display math.
func formatLaTeX(latex string) string {
	latex = strings.ReplaceAll(latex, `\displaystyle `, "")
	latex = strings.ReplaceAll(latex, `\\`, `\`)
	if !strings.Contains(latex, "$$") {
		latex = strings.ReplaceAll(latex, "$", "$$")
	}
	return strings.Replace(template("latex_format.html"), "%%replace%%", latex, 1)
}

// formatMarkdown renders markdown to HTML and wraps it into the
// stylesheet-linked document.
func formatMarkdown(md string) (string, error) {
	var buf bytes.Buffer
	if err := getMarkdown().Convert([]byte(md), &buf); err != nil {
		return "", errors.Wrap(errors.ErrCodeFormatFailed, err, "render markdown")
	}
	return strings.Replace(template("markdown_format.html"), "%%replace%%", buf.String(), 1), nil
}

// formatJSON pretty-prints a JSON payload into a document.
func formatJSON(data string) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(data), "", "    "); err != nil {
		return "", errors.Wrap(errors.ErrCodeFormatFailed, err, "invalid json payload")
	}
	return strings.Replace(template("dict_format.html"), "%%replace%%", buf.String(), 1), nil
}

// formatGeoJSON substitutes the basemap URL and the geometry payload
// into the map-viewer configuration. The payload is embedded as a JSON
// string, which is the representation the maps app loads.
func formatGeoJSON(data string, meta Metadata) (string, error) {
	if meta.URLTemplate == "" {
		return "", errors.New(errors.ErrCodeFormatFailed, "geojson output missing url_template metadata")
	}
	basemap := meta.URLTemplate
	if meta.BasemapID != "" {
		basemap = strings.ReplaceAll(basemap, "{basemap_id}", meta.BasemapID)
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeFormatFailed, err, "encode geojson payload")
	}

	out := template("geojson_format.json")
	out = strings.Replace(out, "%%basemap%%", basemap, 1)
	out = strings.Replace(out, "%%geojson%%", string(encoded), 1)
	return out, nil
}
