package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/kbassist/internal/db"
)

// SearchText runs a scored full-text search via FT.SEARCH ... WITHSCORES.
// Terms are escaped individually; the engine intersects them (implicit AND).
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, errors.New("index name is required")
	}
	if len(q.Terms) == 0 {
		return nil, errors.New("at least one term is required")
	}
	if q.TopK <= 0 {
		return nil, errors.New("topK must be positive")
	}
	if q.Offset < 0 {
		return nil, errors.New("offset must not be negative")
	}

	args := []string{q.IndexName, buildTextQuery(q.Fields, q.Terms), "WITHSCORES"}
	args = appendReturn(args, q.ReturnFields)
	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.TopK),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseSearchReply(raw, true)
}

// SearchList performs an unscored, optionally sorted search via FT.SEARCH.
func (s *Store) SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, errors.New("index name is required")
	}
	query := q.Query
	if query == "" {
		query = "*"
	}

	args := appendReturn([]string{q.IndexName, query}, q.ReturnFields)
	if q.SortBy != "" {
		order := "ASC"
		if q.SortDesc {
			order = "DESC"
		}
		args = append(args, "SORTBY", q.SortBy, order)
	}
	args = append(args, "LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit), "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseSearchReply(raw, false)
}

// CountBy groups every indexed document by a TAG field and counts each group.
// Documents with an empty value are not reported.
func (s *Store) CountBy(ctx context.Context, index, field string) (map[string]int, error) {
	cmd := s.b().Arbitrary("FT.AGGREGATE").
		Args(index, "*", "GROUPBY", "1", "@"+field, "REDUCE", "COUNT", "0", "AS", "count").
		Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}

	counts := make(map[string]int)
	// [numGroups, [field, value, count, n], ...]
	for i := 1; i < len(raw); i++ {
		row, err := raw[i].ToArray()
		if err != nil {
			continue
		}
		fields := parseFieldPairs(row)
		value := fields[field]
		if value == "" {
			continue
		}
		n, err := strconv.Atoi(fields["count"])
		if err != nil {
			return nil, fmt.Errorf("parse count for %q: %w", value, err)
		}
		counts[value] = n
	}
	return counts, nil
}

func appendReturn(args, fields []string) []string {
	if len(fields) == 0 {
		return args
	}
	args = append(args, "RETURN", strconv.Itoa(len(fields)))
	return append(args, fields...)
}

// buildTextQuery renders @f1|f2:(t1 t2); with no fields the terms search every TEXT field.
func buildTextQuery(fields, terms []string) string {
	escaped := make([]string, len(terms))
	for i, t := range terms {
		escaped[i] = escapeQuery(t)
	}
	body := strings.Join(escaped, " ")
	if len(fields) == 0 {
		return body
	}
	return fmt.Sprintf("@%s:(%s)", strings.Join(fields, "|"), body)
}

// parseSearchReply decodes an FT.SEARCH reply in RESP2 form:
// [total, key, (score,) fields, key, (score,) fields, ...]. Malformed rows are skipped.
func parseSearchReply(raw []rueidis.RedisMessage, withScores bool) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	stride := 2
	if withScores {
		stride = 3
	}
	res := &db.SearchResult{Total: int(total)}
	rows := raw[1:]
	for len(rows) >= stride {
		row := rows[:stride]
		rows = rows[stride:]

		if e, ok := decodeEntry(row, withScores); ok {
			res.Entries = append(res.Entries, e)
		}
	}
	return res, nil
}

func decodeEntry(row []rueidis.RedisMessage, withScores bool) (db.SearchEntry, bool) {
	key, err := row[0].ToString()
	if err != nil {
		return db.SearchEntry{}, false
	}
	e := db.SearchEntry{Key: key}
	if withScores {
		raw, err := row[1].ToString()
		if err != nil {
			return db.SearchEntry{}, false
		}
		if e.Score, err = strconv.ParseFloat(raw, 64); err != nil {
			return db.SearchEntry{}, false
		}
	}
	pairs, err := row[len(row)-1].ToArray()
	if err != nil {
		return db.SearchEntry{}, false
	}
	e.Fields = parseFieldPairs(pairs)
	return e, true
}

func parseFieldPairs(pairs []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(pairs)/2)
	for j := 0; j+1 < len(pairs); j += 2 {
		name, nameErr := pairs[j].ToString()
		value, valueErr := pairs[j+1].ToString()
		if nameErr == nil && valueErr == nil {
			m[name] = value
		}
	}
	return m
}

// querySyntax lists the runes the query parser treats as operators or separators.
const querySyntax = `\,.'"@{}()|-~*[]!%^$<>=:;+#&/?_` + "`"

// escapeQuery backslash-escapes query syntax so a term matches literally.
func escapeQuery(term string) string {
	if !strings.ContainsAny(term, querySyntax) {
		return term
	}
	var sb strings.Builder
	sb.Grow(len(term) + 4)
	for _, r := range term {
		if strings.ContainsRune(querySyntax, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
