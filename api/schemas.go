package api

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/qri-io/jsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	schemaOnce  sync.Once
	schemaCache map[string]*jsonschema.Schema
	schemaErr   error
)

// loadSchemas compiles every embedded request schema, keyed by file name
// without extension.
func loadSchemas() (map[string]*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		entries, err := schemaFS.ReadDir("schemas")
		if err != nil {
			schemaErr = fmt.Errorf("read schemas: %w", err)
			return
		}
		cache := make(map[string]*jsonschema.Schema, len(entries))
		for _, e := range entries {
			b, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
			if err != nil {
				schemaErr = fmt.Errorf("read schema %s: %w", e.Name(), err)
				return
			}
			rs := &jsonschema.Schema{}
			if err := json.Unmarshal(b, rs); err != nil {
				schemaErr = fmt.Errorf("compile schema %s: %w", e.Name(), err)
				return
			}
			cache[strings.TrimSuffix(e.Name(), ".json")] = rs
		}
		schemaCache = cache
	})
	return schemaCache, schemaErr
}

// validateBody returns one message per schema violation. The error is set only
// when the schema itself is missing or unusable.
func validateBody(ctx context.Context, name string, body []byte) ([]string, error) {
	schemas, err := loadSchemas()
	if err != nil {
		return nil, err
	}
	s, ok := schemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	verrs, err := s.ValidateBytes(ctx, body)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(verrs))
	for _, ve := range verrs {
		if ve.PropertyPath != "" && ve.PropertyPath != "/" {
			out = append(out, ve.PropertyPath+": "+ve.Message)
			continue
		}
		out = append(out, ve.Message)
	}
	return out, nil
}
