package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/kbassist/internal/domain/article"
)

// Fixture is a YAML seed document.
type Fixture struct {
	// Categories, when listed, restricts the categories articles may reference.
	Categories []string         `yaml:"categories"`
	Articles   []ArticleFixture `yaml:"articles"`
}

// ArticleFixture is one article entry.
type ArticleFixture struct {
	ID          int64     `yaml:"id"`
	Title       string    `yaml:"title"`
	Author      string    `yaml:"author"`
	Category    string    `yaml:"category"`
	Tags        []string  `yaml:"tags"`
	PublishedAt time.Time `yaml:"published_at"`
	Content     string    `yaml:"content"`
}

// Load reads and parses a fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	f, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a fixture, rejecting unknown keys.
func Parse(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse seed yaml: %w", err)
	}
	return &f, nil
}

// Build validates every entry and converts it to an Article.
func (f *Fixture) Build() ([]article.Article, error) {
	seen := make(map[int64]struct{}, len(f.Articles))
	out := make([]article.Article, 0, len(f.Articles))

	for i, af := range f.Articles {
		if _, dup := seen[af.ID]; dup {
			return nil, fmt.Errorf("articles[%d]: duplicate id %d", i, af.ID)
		}
		seen[af.ID] = struct{}{}

		if len(f.Categories) > 0 && af.Category != "" && !slices.Contains(f.Categories, af.Category) {
			return nil, fmt.Errorf("articles[%d]: unknown category %q", i, af.Category)
		}

		a, err := article.New(af.ID, af.Title, af.Content, af.Author, af.Category, af.Tags, af.PublishedAt)
		if err != nil {
			return nil, fmt.Errorf("articles[%d]: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}
