package server

import (
	"fmt"
	"html"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// copyChunk bounds how much file data is buffered per write while
// streaming range responses.
const copyChunk = 64 * 1024

// rangeSpec matches the single-range byte form. Suffix ranges and
// multi-range requests are not supported and fall back to a full
// response.
var rangeSpec = regexp.MustCompile(`^bytes=(\d+)-(\d+)?`)

// parseRange extracts the inclusive byte range from a Range header.
// to is -1 for an open-ended range. Absent or malformed headers return
// ok=false, which means "serve the whole file".
func parseRange(header string) (from, to int64, ok bool) {
	if header == "" {
		return 0, 0, false
	}
	m := rangeSpec.FindStringSubmatch(header)
	if m == nil {
		return 0, 0, false
	}
	from, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	to = int64(-1)
	if m[2] != "" {
		to, err = strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return 0, 0, false
		}
	}
	return from, to, true
}

// files serves a directory over HTTP with single-range support, the
// way media apps fetch video and audio assets. Paths are normalized
// and never escape the root directory.
type files struct {
	dir string
}

// resolve maps a request path onto the served directory. Dot segments
// are collapsed by path.Clean before joining, so "/../x" resolves
// inside the root.
func (f *files) resolve(urlPath string) string {
	clean := path.Clean("/" + urlPath)
	return filepath.Join(f.dir, filepath.FromSlash(clean))
}

func (f *files) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	target := f.resolve(r.URL.Path)
	info, err := os.Stat(target)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if info.IsDir() {
		if !strings.HasSuffix(r.URL.Path, "/") {
			http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
			return
		}
		for _, index := range []string{"index.html", "index.htm"} {
			candidate := filepath.Join(target, index)
			if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
				target, info = candidate, fi
				break
			}
		}
		if info.IsDir() {
			f.listDirectory(w, r, target)
			return
		}
	}

	f.serveFile(w, r, target, info.Size())
}

func (f *files) serveFile(w http.ResponseWriter, r *http.Request, target string, size int64) {
	file, err := os.Open(target)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer file.Close()

	ctype := mime.TypeByExtension(filepath.Ext(target))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Accept-Ranges", "bytes")
	if fi, err := file.Stat(); err == nil {
		w.Header().Set("Last-Modified", fi.ModTime().UTC().Format(http.TimeFormat))
	}

	from, to, ok := parseRange(r.Header.Get("Range"))
	if !ok {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			copyBounded(w, file, size)
		}
		return
	}

	if from >= size {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return
	}
	if to < 0 || to >= size {
		to = size - 1
	}
	length := to - from + 1
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", from, to, size))
	w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(http.StatusPartialContent)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := file.Seek(from, io.SeekStart); err != nil {
		return
	}
	copyBounded(w, file, length)
}

// copyBounded streams n bytes in fixed-size chunks. Client disconnects
// surface as write errors and simply stop the copy.
func copyBounded(w io.Writer, src io.Reader, n int64) {
	buf := make([]byte, copyChunk)
	io.CopyBuffer(w, io.LimitReader(src, n), buf)
}

func (f *files) listDirectory(w http.ResponseWriter, r *http.Request, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		http.Error(w, "cannot list directory", http.StatusInternalServerError)
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	title := html.EscapeString(r.URL.Path)
	fmt.Fprintf(&b, "<!DOCTYPE html>\n<html lang=\"en\">\n<head><meta charset=\"utf-8\"><title>%s</title></head>\n<body>\n<h1>%s</h1>\n<ul>\n", title, title)
	for _, name := range names {
		escaped := html.EscapeString(name)
		fmt.Fprintf(&b, "<li><a href=\"%s\">%s</a></li>\n", escaped, escaped)
	}
	b.WriteString("</ul>\n</body>\n</html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		io.WriteString(w, b.String())
	}
}
