package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zulandar/railsection/internal/models"
	"gopkg.in/yaml.v3"
)

// FileSource reads a snapshot from a JSON or YAML file. Files ending in
// .json are decoded as JSON; anything else as YAML.
type FileSource struct {
	Path string
}

// Snapshot reads and decodes the file.
func (f FileSource) Snapshot(ctx context.Context) (*models.World, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("oracle: read %s: %w", f.Path, err)
	}

	var w models.World
	if strings.EqualFold(filepath.Ext(f.Path), ".json") {
		err = json.Unmarshal(data, &w)
	} else {
		err = yaml.Unmarshal(data, &w)
	}
	if err != nil {
		return nil, fmt.Errorf("oracle: decode %s: %w", f.Path, err)
	}
	return &w, nil
}
