package main

import (
	"context"
	"fmt"
	"strings"

	"fusion-agent-be/internal/entity"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Contexts []struct {
		Stream      string `yaml:"stream"`
		Description string `yaml:"description"`
		Query       string `yaml:"query"`
	} `yaml:"contexts"`
}

type contextRegistrar interface {
	Register(ctx context.Context, stream, description, query string) (*entity.QueryContext, bool, error)
}

// seedContexts registers every context of the seed file. Entries already
// stored for their stream are skipped, so reruns are safe.
func seedContexts(ctx context.Context, catalog contextRegistrar, data []byte) (created int, err error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}

	for _, c := range file.Contexts {
		if strings.TrimSpace(c.Stream) == "" || c.Description == "" || strings.TrimSpace(c.Query) == "" {
			return 0, fmt.Errorf("seed entry %q is incomplete", c.Description)
		}
	}

	for _, c := range file.Contexts {
		_, ok, err := catalog.Register(ctx, c.Stream, c.Description, strings.TrimSpace(c.Query))
		if err != nil {
			return created, fmt.Errorf("seed context %q: %w", c.Description, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}
