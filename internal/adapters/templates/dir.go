// Package templates serves starter flowcharts from a directory of .dot
// files, keyed by file stem.
package templates

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/app/dto"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/flow"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/pkg/dot"
)

// idPattern is the only shape of template id the loader resolves, which
// keeps ids from escaping the template directory.
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

var titleCaser = cases.Title(language.English)

// Dir implements usecases.TemplateSource over a directory.
type Dir struct {
	dir string
}

// NewDir creates a template source rooted at dir. The directory may be
// created later; a missing directory just lists no templates.
func NewDir(dir string) *Dir {
	return &Dir{dir: dir}
}

// List returns the available templates sorted by id. The display name
// is derived from the stem, so order_fulfillment.dot shows as
// "Order Fulfillment".
func (d *Dir) List(ctx context.Context) ([]dto.TemplateInfo, error) {
	entries, err := os.ReadDir(d.dir)
	if os.IsNotExist(err) {
		return []dto.TemplateInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read template directory: %w", err)
	}

	infos := make([]dto.TemplateInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".dot" {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".dot")
		if !idPattern.MatchString(id) {
			continue
		}
		infos = append(infos, dto.TemplateInfo{ID: id, Name: DisplayName(id)})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

// Load parses the template with the given id into a fresh graph.
func (d *Dir) Load(ctx context.Context, id string) (*flow.Graph, error) {
	if !idPattern.MatchString(id) {
		return nil, fmt.Errorf("template %q: %w", id, dto.ErrTemplateNotFound)
	}

	data, err := os.ReadFile(filepath.Join(d.dir, id+".dot"))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("template %q: %w", id, dto.ErrTemplateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read template %q: %w", id, err)
	}

	g, err := dot.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", id, err)
	}
	return g, nil
}

// DisplayName turns a template id into its human form.
func DisplayName(id string) string {
	return titleCaser.String(strings.ReplaceAll(id, "_", " "))
}
