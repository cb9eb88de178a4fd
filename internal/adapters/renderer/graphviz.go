// Package renderer draws flowchart graphs to image files with the
// Graphviz dot executable.
package renderer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/app/dto"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/flow"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/pkg/dot"
)

// formats whitelists the -T values handed to dot.
var formats = map[string]bool{
	"png": true,
	"svg": true,
	"pdf": true,
}

// DefaultFormat is used when a caller does not ask for one.
const DefaultFormat = "png"

// Graphviz implements usecases.Renderer by shelling out to dot(1).
type Graphviz struct {
	dotPath   string
	outputDir string
	tempDir   string
}

// NewGraphviz creates a renderer. dotPath may be a bare command name
// resolved via PATH or an absolute path to the executable.
func NewGraphviz(dotPath, outputDir, tempDir string) *Graphviz {
	if dotPath == "" {
		dotPath = "dot"
	}
	return &Graphviz{
		dotPath:   dotPath,
		outputDir: outputDir,
		tempDir:   tempDir,
	}
}

// Available reports whether the dot executable can be resolved.
func (r *Graphviz) Available() error {
	if _, err := exec.LookPath(r.dotPath); err != nil {
		return fmt.Errorf("graphviz not available: %w", err)
	}
	return nil
}

// Render serializes g, runs dot over it, and returns the generated file
// name inside the output directory. The intermediate .dot file is
// removed on the way out.
func (r *Graphviz) Render(ctx context.Context, g *flow.Graph, format string) (string, error) {
	if format == "" {
		format = DefaultFormat
	}
	if !formats[format] {
		return "", fmt.Errorf("%w: unsupported format %q", dto.ErrRenderFailed, format)
	}
	for _, dir := range []string{r.outputDir, r.tempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("%w: %w", dto.ErrRenderFailed, err)
		}
	}

	name := fmt.Sprintf("flowchart_%s.%s", uuid.New().String(), format)
	outPath := filepath.Join(r.outputDir, name)

	dotFile, err := os.CreateTemp(r.tempDir, "flowchart-*.dot")
	if err != nil {
		return "", fmt.Errorf("%w: %w", dto.ErrRenderFailed, err)
	}
	defer os.Remove(dotFile.Name())

	if _, err := dotFile.WriteString(dot.Serialize(g)); err != nil {
		dotFile.Close()
		return "", fmt.Errorf("%w: %w", dto.ErrRenderFailed, err)
	}
	if err := dotFile.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", dto.ErrRenderFailed, err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.dotPath, "-T"+format, "-o", outPath, dotFile.Name())
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return "", fmt.Errorf("%w: %s", dto.ErrRenderFailed, bytes.TrimSpace(stderr.Bytes()))
		}
		return "", fmt.Errorf("%w: %w", dto.ErrRenderFailed, err)
	}
	return name, nil
}
