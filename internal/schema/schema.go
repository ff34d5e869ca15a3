// Package schema resolves the plain-text description of the database that is
// embedded in every prompt.
package schema

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/askdata/askdata/internal/storage"
)

const maxSchemaBytes = 1 << 20

var ErrNotConfigured = errors.New("database schema description is not configured")

type Source string

const (
	SourceDefinition Source = "definition"
	SourceObject     Source = "object"
	SourceFile       Source = "file"
)

// Context is loaded once at startup and never mutated afterwards.
type Context struct {
	Text   string
	Source Source
}

type Sources struct {
	Definition string
	ObjectKey  string
	File       string
}

// Load resolves the description from the inline definition, then the object
// store, then the local file. Blank text counts as absent. An object key or
// file that is configured but unreadable is an error, not a fallthrough.
func Load(ctx context.Context, sources Sources, store storage.ObjectStore) (Context, error) {
	if text := strings.TrimSpace(sources.Definition); text != "" {
		return Context{Text: text, Source: SourceDefinition}, nil
	}

	if key := strings.TrimSpace(sources.ObjectKey); key != "" {
		if store == nil {
			return Context{}, fmt.Errorf("schema object key %q set without an object store", key)
		}
		body, err := storage.ReadAll(ctx, store, key, maxSchemaBytes)
		if err != nil {
			return Context{}, fmt.Errorf("read schema object %q: %w", key, err)
		}
		if text := strings.TrimSpace(string(body)); text != "" {
			return Context{Text: text, Source: SourceObject}, nil
		}
	}

	if path := strings.TrimSpace(sources.File); path != "" {
		body, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Context{}, fmt.Errorf("read schema file %q: %w", path, err)
		default:
			if text := strings.TrimSpace(string(body)); text != "" {
				return Context{Text: text, Source: SourceFile}, nil
			}
		}
	}

	return Context{}, ErrNotConfigured
}
