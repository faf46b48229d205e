package article

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// Field limits mirror the column sizes of the relational store.
const (
	MaxTitleLen    = 255
	MaxAuthorLen   = 100
	MaxCategoryLen = 100
	MaxTagLen      = 50
)

// Article is a knowledge base entry (immutable value object).
type Article struct {
	id          int64
	title       string
	content     string
	author      string
	category    string
	tags        []string
	publishedAt time.Time
}

// New validates and creates an Article.
// Tags are trimmed, empty ones dropped and duplicates removed keeping first occurrence.
func New(
	id int64, title, content, author, category string,
	tags []string, publishedAt time.Time,
) (Article, error) {
	if id <= 0 {
		return Article{}, fmt.Errorf("article id must be positive, got %d", id)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return Article{}, fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return Article{}, fmt.Errorf("title too long (max %d)", MaxTitleLen)
	}
	if strings.TrimSpace(content) == "" {
		return Article{}, fmt.Errorf("content is required")
	}
	author = strings.TrimSpace(author)
	if utf8.RuneCountInString(author) > MaxAuthorLen {
		return Article{}, fmt.Errorf("author too long (max %d)", MaxAuthorLen)
	}
	category = strings.TrimSpace(category)
	if utf8.RuneCountInString(category) > MaxCategoryLen {
		return Article{}, fmt.Errorf("category too long (max %d)", MaxCategoryLen)
	}
	if strings.Contains(category, "|") {
		return Article{}, fmt.Errorf("category %q must not contain '|'", category)
	}
	if publishedAt.IsZero() {
		return Article{}, fmt.Errorf("published date is required")
	}

	clean, err := normalizeTags(tags)
	if err != nil {
		return Article{}, err
	}

	return Article{
		id:          id,
		title:       title,
		content:     content,
		author:      author,
		category:    category,
		tags:        clean,
		publishedAt: publishedAt.UTC(),
	}, nil
}

// Reconstruct creates an Article without validation (storage hydration).
func Reconstruct(
	id int64, title, content, author, category string,
	tags []string, publishedAt time.Time,
) Article {
	return Article{
		id:          id,
		title:       title,
		content:     content,
		author:      author,
		category:    category,
		tags:        tags,
		publishedAt: publishedAt.UTC(),
	}
}

// ID returns the article identifier.
func (a *Article) ID() int64 { return a.id }

// Title returns the article title.
func (a *Article) Title() string { return a.title }

// Content returns the article body.
func (a *Article) Content() string { return a.content }

// Author returns the author display name.
func (a *Article) Author() string { return a.author }

// Category returns the category name, empty when the article has none.
func (a *Article) Category() string { return a.category }

// HasCategory reports whether the article belongs to a category.
func (a *Article) HasCategory() bool { return a.category != "" }

// Tags returns a copy of the tag names in stored order.
func (a *Article) Tags() []string { return slices.Clone(a.tags) }

// PublishedAt returns the publication time in UTC.
func (a *Article) PublishedAt() time.Time { return a.publishedAt }

func normalizeTags(tags []string) ([]string, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if strings.Contains(t, ",") {
			return nil, fmt.Errorf("tag %q must not contain a comma", t)
		}
		if utf8.RuneCountInString(t) > MaxTagLen {
			return nil, fmt.Errorf("tag %q too long (max %d)", t, MaxTagLen)
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}
