package db

import (
	"errors"
	"fmt"
	"strings"
)

// IndexFieldType enumerates the FT schema field types the article index needs.
type IndexFieldType int

// Field types.
const (
	IndexFieldNumeric IndexFieldType = iota
	IndexFieldTag
	IndexFieldText
)

func (t IndexFieldType) String() string {
	switch t {
	case IndexFieldNumeric:
		return "NUMERIC"
	case IndexFieldTag:
		return "TAG"
	case IndexFieldText:
		return "TEXT"
	}
	return fmt.Sprintf("IndexFieldType(%d)", int(t))
}

// IndexField is one hash field in an FT schema.
type IndexField struct {
	Name     string
	Type     IndexFieldType
	Sortable bool

	Weight float64 // TEXT only; 0 keeps the server default of 1

	TagSeparator     string // TAG only
	TagCaseSensitive bool   // TAG only
}

// IndexDefinition is an FT index over the hashes under Prefixes.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// Validate reports every problem with the definition at once.
func (idx *IndexDefinition) Validate() error {
	var errs []error
	switch {
	case idx.Name == "":
		errs = append(errs, errors.New("index name is required"))
	case strings.ContainsFunc(idx.Name, invalidNameRune):
		errs = append(errs, fmt.Errorf("index name %q contains invalid characters", idx.Name))
	}
	if len(idx.Fields) == 0 {
		errs = append(errs, errors.New("at least one field is required"))
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	for i, f := range idx.Fields {
		if f.Name == "" {
			errs = append(errs, fmt.Errorf("field %d: name is required", i))
			continue
		}
		if _, dup := seen[f.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate field name: %s", f.Name))
		}
		seen[f.Name] = struct{}{}
		if f.Weight < 0 {
			errs = append(errs, fmt.Errorf("negative weight on field %s", f.Name))
		}
	}
	return errors.Join(errs...)
}

// String summarizes the schema, e.g. "kb:articles:idx[kb:article:] title:TEXT published_at:NUMERIC".
func (idx *IndexDefinition) String() string {
	var sb strings.Builder
	sb.WriteString(idx.Name)
	sb.WriteString("[" + strings.Join(idx.Prefixes, ",") + "]")
	for _, f := range idx.Fields {
		sb.WriteString(" " + f.Name + ":" + f.Type.String())
	}
	return sb.String()
}

// invalidNameRune rejects anything outside [a-zA-Z0-9_:-].
func invalidNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case r == '_' || r == ':' || r == '-':
		return false
	}
	return true
}

// IndexBuilder assembles an IndexDefinition field by field.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts a definition named name.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Prefix adds key prefixes the index covers.
func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

// Text adds a full-text field.
func (b *IndexBuilder) Text(name string) *IndexBuilder {
	return b.add(IndexField{Name: name, Type: IndexFieldText})
}

// WeightedText adds a full-text field whose matches score weight times a plain one.
func (b *IndexBuilder) WeightedText(name string, weight float64) *IndexBuilder {
	return b.add(IndexField{Name: name, Type: IndexFieldText, Weight: weight})
}

// Tag adds an exact-match field. Empty separator keeps the server default ",".
func (b *IndexBuilder) Tag(name, separator string, caseSensitive bool) *IndexBuilder {
	return b.add(IndexField{Name: name, Type: IndexFieldTag, TagSeparator: separator, TagCaseSensitive: caseSensitive})
}

// Numeric adds a numeric range field.
func (b *IndexBuilder) Numeric(name string) *IndexBuilder {
	return b.add(IndexField{Name: name, Type: IndexFieldNumeric})
}

// Sortable marks the last added field SORTABLE.
func (b *IndexBuilder) Sortable() *IndexBuilder {
	if n := len(b.def.Fields); n > 0 {
		b.def.Fields[n-1].Sortable = true
	}
	return b
}

func (b *IndexBuilder) add(f IndexField) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}

// Build validates and returns the definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	return &b.def, nil
}

// MustBuild is Build for package-level schemas that are known to be valid.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}
