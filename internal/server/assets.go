package server

import (
	"bytes"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

type asset struct {
	mime string
	data []byte
}

// assets holds the frontend files, minified once at start-up.
type assets struct {
	files   map[string]asset
	modtime time.Time
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/javascript", js.Minify)
	return m
}

// loadAssets reads every file of fsys. HTML, CSS and JS are minified;
// anything else is served as is.
func loadAssets(fsys fs.FS) (*assets, error) {
	m := newMinifier()
	a := &assets{files: make(map[string]asset), modtime: time.Now()}
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		typ := mime.TypeByExtension(path.Ext(p))
		media, _, _ := strings.Cut(typ, ";")
		if media == "application/javascript" {
			media = "text/javascript"
		}
		switch media {
		case "text/html", "text/css", "text/javascript":
			out, err := m.Bytes(media, data)
			if err != nil {
				return fmt.Errorf("minify %s: %w", p, err)
			}
			data = out
		}
		if typ == "" {
			typ = "application/octet-stream"
		}
		a.files["/"+p] = asset{mime: typ, data: data}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *assets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := path.Clean("/" + r.URL.Path)
	if strings.HasSuffix(p, "/") {
		p += "index.html"
	}
	f, ok := a.files[p]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", f.mime)
	http.ServeContent(w, r, p, a.modtime, bytes.NewReader(f.data))
}
