package article

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/kbassist/internal/db"
	"github.com/kailas-cloud/kbassist/internal/domain"
	domarticle "github.com/kailas-cloud/kbassist/internal/domain/article"
	"github.com/kailas-cloud/kbassist/internal/domain/search/result"
)

// SQLRepo reads and writes the normalized article tables and their FTS5 shadow index.
type SQLRepo struct {
	db *sql.DB
}

// NewSQL creates a SQLite-backed article repository on an already migrated database.
func NewSQL(conn *sql.DB) *SQLRepo {
	return &SQLRepo{db: conn}
}

const selectArticle = `
	SELECT a.id, a.title, a.content, au.name, COALESCE(c.name, ''), a.published_at`

const fromArticle = `
	FROM articles a
	JOIN authors au ON au.id = a.author_id
	LEFT JOIN categories c ON c.id = a.category_id`

// EnsureSchema is a no-op: migrations run when the database is opened.
func (r *SQLRepo) EnsureSchema(context.Context) error { return nil }

// Get returns a single article.
func (r *SQLRepo) Get(ctx context.Context, id int64) (domarticle.Article, error) {
	arts, err := r.GetByIDs(ctx, []int64{id})
	if err != nil {
		return domarticle.Article{}, err
	}
	if len(arts) == 0 {
		return domarticle.Article{}, domain.ErrArticleNotFound
	}
	return arts[0], nil
}

// GetByIDs returns the known articles among ids, newest first. Unknown ids are skipped.
func (r *SQLRepo) GetByIDs(ctx context.Context, ids []int64) ([]domarticle.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := selectArticle + `, 0` + fromArticle + `
	WHERE a.id IN (` + placeholders(len(ids)) + `)
	ORDER BY a.published_at DESC, a.id ASC`

	results, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get articles: %w", err)
	}
	out := make([]domarticle.Article, len(results))
	for i := range results {
		out[i] = results[i].Article()
	}
	return out, nil
}

// SearchCandidates runs an FTS5 conjunction over title and content scored by -bm25,
// so higher is better, and returns the page at offset. With no terms it pages through
// all articles newest first with zero scores. Category filtering happens in the ranker,
// which folds case for all of Unicode rather than ASCII only as LIKE does.
func (r *SQLRepo) SearchCandidates(
	ctx context.Context, terms []string, offset, limit int,
) ([]result.Result, error) {
	var (
		b    strings.Builder
		args []any
	)
	if len(terms) == 0 {
		b.WriteString(selectArticle + `, 0.0 AS score` + fromArticle)
	} else {
		b.WriteString(selectArticle + `, -bm25(articles_fts) AS score
	FROM articles_fts
	JOIN articles a ON a.id = articles_fts.rowid
	JOIN authors au ON au.id = a.author_id
	LEFT JOIN categories c ON c.id = a.category_id
	WHERE articles_fts MATCH ?`)
		args = append(args, matchExpr(terms))
	}
	b.WriteString(` ORDER BY score DESC, a.published_at DESC, a.id ASC LIMIT ? OFFSET ?`)
	args = append(args, limit, offset)

	out, err := r.query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search articles: %w", err)
	}
	return out, nil
}

// Categories returns every category with its article count, sorted by name.
func (r *SQLRepo) Categories(ctx context.Context) ([]domarticle.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.name, COUNT(a.id)
		FROM categories c
		LEFT JOIN articles a ON a.category_id = c.id
		GROUP BY c.id
		ORDER BY c.name`)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	var out []domarticle.Category
	for rows.Next() {
		var c domarticle.Category
		if err := rows.Scan(&c.Name, &c.Articles); err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: err}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return out, nil
}

// Upsert writes articles with their author, category and tags in one transaction.
// Triggers keep the FTS index in step with the articles table.
func (r *SQLRepo) Upsert(ctx context.Context, articles ...domarticle.Article) error {
	if len(articles) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	for i := range articles {
		if err := upsertArticle(ctx, tx, &articles[i]); err != nil {
			return fmt.Errorf("upsert article %d: %w", articles[i].ID(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

func upsertArticle(ctx context.Context, tx *sql.Tx, a *domarticle.Article) error {
	authorID, err := upsertName(ctx, tx, "authors", a.Author())
	if err != nil {
		return err
	}
	var categoryID sql.NullInt64
	if a.HasCategory() {
		id, err := upsertName(ctx, tx, "categories", a.Category())
		if err != nil {
			return err
		}
		categoryID = sql.NullInt64{Int64: id, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO articles (id, title, content, author_id, category_id, published_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			author_id = excluded.author_id,
			category_id = excluded.category_id,
			published_at = excluded.published_at`,
		a.ID(), a.Title(), a.Content(), authorID, categoryID, a.PublishedAt().Unix(),
	)
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM article_tags WHERE article_id = ?`, a.ID()); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	for _, tag := range a.Tags() {
		tagID, err := upsertName(ctx, tx, "tags", tag)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO article_tags (article_id, tag_id) VALUES (?, ?)`, a.ID(), tagID,
		); err != nil {
			return &db.Error{Op: db.OpSet, Err: err}
		}
	}
	return nil
}

// upsertName inserts into a (id, name UNIQUE) lookup table and returns the row id.
// table is always a package constant.
func upsertName(ctx context.Context, tx *sql.Tx, table, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO `+table+` (name) VALUES (?)
		ON CONFLICT(name) DO UPDATE SET name = excluded.name
		RETURNING id`, name,
	).Scan(&id)
	if err != nil {
		return 0, &db.Error{Op: db.OpSet, Err: fmt.Errorf("%s %q: %w", table, name, err)}
	}
	return id, nil
}

// query runs an article select whose last column is the score, then hydrates tags.
func (r *SQLRepo) query(ctx context.Context, query string, args ...any) ([]result.Result, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	type row struct {
		id                               int64
		title, content, author, category string
		published                        int64
		score                            float64
	}
	var scanned []row
	for rows.Next() {
		var x row
		if err := rows.Scan(&x.id, &x.title, &x.content, &x.author, &x.category, &x.published, &x.score); err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: err}
		}
		scanned = append(scanned, x)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	if len(scanned) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(scanned))
	for i := range scanned {
		ids[i] = scanned[i].id
	}
	tags, err := r.tagsFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]result.Result, len(scanned))
	for i, x := range scanned {
		a := domarticle.Reconstruct(x.id, x.title, x.content, x.author, x.category,
			tags[x.id], time.Unix(x.published, 0))
		out[i] = result.New(a, x.score)
	}
	return out, nil
}

// tagsFor loads tags per article in insertion order.
func (r *SQLRepo) tagsFor(ctx context.Context, ids []int64) (map[int64][]string, error) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT at.article_id, t.name
		FROM article_tags at
		JOIN tags t ON t.id = at.tag_id
		WHERE at.article_id IN (`+placeholders(len(ids))+`)
		ORDER BY at.rowid`, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	out := make(map[int64][]string, len(ids))
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: err}
		}
		out[id] = append(out[id], name)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return out, nil
}

// matchExpr quotes each term as an FTS5 string and joins them with AND.
func matchExpr(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " AND ")
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
