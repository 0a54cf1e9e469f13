// Package filesystem lists yacht photos stored under IMAGES_DIR/<id>/.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"meiras_yachting/internal/domain"
)

// URLPrefix is where the HTTP server mounts the images directory.
const URLPrefix = "/images"

type Gallery struct{ root string }

func NewGallery(root string) *Gallery { return &Gallery{root: root} }

func (g *Gallery) Root() string { return g.root }

// List returns public URLs of the regular files in the record's folder,
// sorted by name. A missing folder is an error, not an empty gallery.
func (g *Gallery) List(ctx context.Context, id string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("%w: invalid image folder %q", domain.ErrBadRequest, id)
	}
	ents, err := os.ReadDir(filepath.Join(g.root, id))
	if err != nil {
		return nil, fmt.Errorf("read image folder %s: %w", id, err)
	}
	out := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, path.Join(URLPrefix, id, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}
