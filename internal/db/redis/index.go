package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/kbassist/internal/db"
)

// EnsureIndex issues FT.CREATE for def and reports whether the index was new.
// An existing index with the same name is left untouched.
func (s *Store) EnsureIndex(ctx context.Context, def *db.IndexDefinition) (bool, error) {
	args, err := ftCreateArgs(def)
	if err != nil {
		return false, fmt.Errorf("index %q: %w", def.Name, err)
	}

	err = s.do(ctx, s.b().Arbitrary("FT.CREATE").Args(args...).Build()).Error()
	switch {
	case err == nil:
		return true, nil
	case isRedisErr(err, "index already exists"):
		return false, nil
	default:
		return false, &db.Error{Op: db.OpCreateIndex, Err: err}
	}
}

// ftCreateArgs renders def as FT.CREATE arguments over hashes.
func ftCreateArgs(def *db.IndexDefinition) ([]string, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	args := []string{def.Name, "ON", "HASH"}
	if n := len(def.Prefixes); n > 0 {
		args = append(args, "PREFIX", strconv.Itoa(n))
		args = append(args, def.Prefixes...)
	}
	args = append(args, "SCHEMA")

	for i := range def.Fields {
		f := &def.Fields[i]
		args = append(args, f.Name)
		typeArgs, err := fieldTypeArgs(f)
		if err != nil {
			return nil, err
		}
		args = append(args, typeArgs...)
		if f.Sortable {
			args = append(args, "SORTABLE")
		}
	}
	return args, nil
}

func fieldTypeArgs(f *db.IndexField) ([]string, error) {
	switch f.Type {
	case db.IndexFieldNumeric:
		return []string{"NUMERIC"}, nil
	case db.IndexFieldText:
		if f.Weight > 0 {
			return []string{"TEXT", "WEIGHT", strconv.FormatFloat(f.Weight, 'g', -1, 64)}, nil
		}
		return []string{"TEXT"}, nil
	case db.IndexFieldTag:
		out := []string{"TAG"}
		if f.TagSeparator != "" {
			out = append(out, "SEPARATOR", f.TagSeparator)
		}
		if f.TagCaseSensitive {
			out = append(out, "CASESENSITIVE")
		}
		return out, nil
	}
	return nil, fmt.Errorf("field %s: unknown type %d", f.Name, f.Type)
}
