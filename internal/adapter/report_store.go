package adapter

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	m "inplace.dev/pkg/inplace/internal/model"
)

// ReportStore writes the active edits listing somewhere outside the process.
// It is a diagnostic export; edits are never loaded back.
type ReportStore interface {
	SaveEdits(ctx context.Context, path m.Path, edits []m.Edit) error
}

// YAMLReportStore writes edits as a YAML document.
type YAMLReportStore struct{}

// NewReportStore constructs the YAML report store.
func NewReportStore() *YAMLReportStore {
	return &YAMLReportStore{}
}

type editsDocument struct {
	Edits []m.Edit `yaml:"edits"`
}

// SaveEdits writes edits to path, replacing any previous content.
func (s *YAMLReportStore) SaveEdits(ctx context.Context, path m.Path, edits []m.Edit) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if edits == nil {
		edits = []m.Edit{}
	}

	data, err := yaml.Marshal(editsDocument{Edits: edits})
	if err != nil {
		return fmt.Errorf("marshal edits: %w", err)
	}

	if err := os.WriteFile(string(path), data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}
