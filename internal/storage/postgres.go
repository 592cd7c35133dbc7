package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/suhuf-hq/suhuf-ingest/internal/domain"
)

const pgUniqueViolation = "23505"

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

var _ Store = (*Postgres)(nil)

// NewPostgres creates a connection pool for the given DSN.
func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	return &Postgres{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

// Migrate applies the schema DDL. Idempotent.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p *Postgres) Close() { p.pool.Close() }

// --- sources ---------------------------------------------------------------

const sourceColumns = "id, name, slug, api_identifier, is_active, created_at, updated_at"

func scanSource(row pgx.Row) (domain.Source, error) {
	var s domain.Source
	err := row.Scan(&s.ID, &s.Name, &s.Slug, &s.APIIdentifier, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (p *Postgres) FindSourceByAPIIdentifier(ctx context.Context, apiIdentifier string) (domain.Source, error) {
	src, err := scanSource(p.pool.QueryRow(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE api_identifier = $1`, apiIdentifier))
	if err != nil {
		return domain.Source{}, mapErr(err, "find source")
	}
	return src, nil
}

// CreateSource inserts the source, returning the existing row on an
// api_identifier conflict so concurrent first sightings converge on one id.
func (p *Postgres) CreateSource(ctx context.Context, src domain.Source) (domain.Source, error) {
	if src.ID == uuid.Nil {
		src.ID = uuid.New()
	}
	created, err := scanSource(p.pool.QueryRow(ctx, `
        INSERT INTO sources (id, name, slug, api_identifier, is_active)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (api_identifier) DO UPDATE SET updated_at = NOW()
        RETURNING `+sourceColumns,
		src.ID, src.Name, src.Slug, src.APIIdentifier, src.IsActive))
	if err != nil {
		return domain.Source{}, mapErr(err, "create source")
	}
	return created, nil
}

// --- authors ---------------------------------------------------------------

const authorColumns = "id, name, source_id, external_id, created_at, updated_at"

func scanAuthor(row pgx.Row) (domain.Author, error) {
	var (
		a          domain.Author
		externalID *string
	)
	err := row.Scan(&a.ID, &a.Name, &a.SourceID, &externalID, &a.CreatedAt, &a.UpdatedAt)
	if externalID != nil {
		a.ExternalID = *externalID
	}
	return a, err
}

func (p *Postgres) FindAuthorBySourceAndName(ctx context.Context, sourceID uuid.UUID, name string) (domain.Author, error) {
	author, err := scanAuthor(p.pool.QueryRow(ctx,
		`SELECT `+authorColumns+` FROM authors WHERE source_id = $1 AND name = $2`, sourceID, name))
	if err != nil {
		return domain.Author{}, mapErr(err, "find author")
	}
	return author, nil
}

func (p *Postgres) CreateAuthor(ctx context.Context, author domain.Author) (domain.Author, error) {
	if author.ID == uuid.Nil {
		author.ID = uuid.New()
	}
	created, err := scanAuthor(p.pool.QueryRow(ctx, `
        INSERT INTO authors (id, name, source_id, external_id)
        VALUES ($1, $2, $3, NULLIF($4, ''))
        ON CONFLICT (source_id, name) DO UPDATE SET updated_at = NOW()
        RETURNING `+authorColumns,
		author.ID, author.Name, author.SourceID, author.ExternalID))
	if err != nil {
		return domain.Author{}, mapErr(err, "create author")
	}
	return created, nil
}

// --- categories ------------------------------------------------------------

const categoryColumns = "id, name, slug, created_at, updated_at"

func scanCategory(row pgx.Row) (domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (p *Postgres) FindCategoryBySlug(ctx context.Context, slug string) (domain.Category, error) {
	cat, err := scanCategory(p.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug))
	if err != nil {
		return domain.Category{}, mapErr(err, "find category")
	}
	return cat, nil
}

func (p *Postgres) CreateCategory(ctx context.Context, category domain.Category) (domain.Category, error) {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	created, err := scanCategory(p.pool.QueryRow(ctx, `
        INSERT INTO categories (id, name, slug)
        VALUES ($1, $2, $3)
        ON CONFLICT (slug) DO UPDATE SET updated_at = NOW()
        RETURNING `+categoryColumns,
		category.ID, category.Name, category.Slug))
	if err != nil {
		return domain.Category{}, mapErr(err, "create category")
	}
	return created, nil
}

// --- articles --------------------------------------------------------------

const articleColumns = "id, title, description, url, image_url, published_at, source_id, author_id, external_id, view_count, last_synced_at, created_at, updated_at"

func scanArticle(row pgx.Row) (domain.Article, error) {
	var (
		a        domain.Article
		imageURL *string
	)
	err := row.Scan(&a.ID, &a.Title, &a.Description, &a.URL, &imageURL, &a.PublishedAt,
		&a.SourceID, &a.AuthorID, &a.ExternalID, &a.ViewCount, &a.LastSyncedAt, &a.CreatedAt, &a.UpdatedAt)
	if imageURL != nil {
		a.ImageURL = *imageURL
	}
	return a, err
}

func (p *Postgres) FindArticleBySourceAndExternalID(ctx context.Context, sourceID uuid.UUID, externalID string) (domain.Article, error) {
	art, err := scanArticle(p.pool.QueryRow(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE source_id = $1 AND external_id = $2`, sourceID, externalID))
	if err != nil {
		return domain.Article{}, mapErr(err, "find article")
	}
	return art, nil
}

// CreateArticle inserts the article and its category links in one
// transaction. A (source_id, external_id) or url collision surfaces as
// ErrDuplicate so racing writers can reclassify the insert as a repeat
// sighting.
func (p *Postgres) CreateArticle(ctx context.Context, article domain.Article, categoryIDs []uuid.UUID) (domain.Article, error) {
	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return domain.Article{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	created, err := scanArticle(tx.QueryRow(ctx, `
        INSERT INTO articles (id, title, description, url, image_url, published_at,
                              source_id, author_id, external_id, view_count, last_synced_at)
        VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, 0, $10)
        RETURNING `+articleColumns,
		article.ID, article.Title, article.Description, article.URL, article.ImageURL,
		article.PublishedAt, article.SourceID, article.AuthorID, article.ExternalID, article.LastSyncedAt))
	if err != nil {
		return domain.Article{}, mapErr(err, "create article")
	}

	for _, catID := range categoryIDs {
		if _, err := tx.Exec(ctx, `
            INSERT INTO article_categories (article_id, category_id)
            VALUES ($1, $2)
            ON CONFLICT DO NOTHING`, created.ID, catID); err != nil {
			return domain.Article{}, mapErr(err, "link category")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Article{}, fmt.Errorf("commit article: %w", err)
	}
	return created, nil
}

func (p *Postgres) TouchArticleLastSynced(ctx context.Context, articleID uuid.UUID, syncedAt time.Time) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE articles SET last_synced_at = $2, updated_at = NOW() WHERE id = $1`, articleID, syncedAt)
	if err != nil {
		return mapErr(err, "touch article")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) RefreshArticleContent(ctx context.Context, articleID uuid.UUID, title, description, imageURL string, syncedAt time.Time) error {
	tag, err := p.pool.Exec(ctx, `
        UPDATE articles
        SET title = $2, description = $3, image_url = NULLIF($4, ''),
            last_synced_at = $5, updated_at = NOW()
        WHERE id = $1`,
		articleID, title, description, imageURL, syncedAt)
	if err != nil {
		return mapErr(err, "refresh article")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) CountArticles(ctx context.Context) (int64, error) {
	var count int64
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count); err != nil {
		return 0, mapErr(err, "count articles")
	}
	return count, nil
}

// ListArticles serves the read path with dynamic filters.
func (p *Postgres) ListArticles(ctx context.Context, filter ArticleFilter) ([]domain.Article, error) {
	cols := make([]string, 0, 13)
	for _, c := range []string{"id", "title", "description", "url", "image_url", "published_at",
		"source_id", "author_id", "external_id", "view_count", "last_synced_at", "created_at", "updated_at"} {
		cols = append(cols, "a."+c)
	}

	q := p.sb.Select(cols...).From("articles a").OrderBy("a.published_at DESC")

	if len(filter.SourceIDs) > 0 {
		q = q.Where(sq.Eq{"a.source_id": filter.SourceIDs})
	}
	if filter.CategorySlug != "" {
		q = q.Join("article_categories ac ON ac.article_id = a.id").
			Join("categories c ON c.id = ac.category_id").
			Where(sq.Eq{"c.slug": filter.CategorySlug})
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		q = q.Where(sq.Or{sq.ILike{"a.title": like}, sq.ILike{"a.description": like}})
	}
	if !filter.From.IsZero() {
		q = q.Where(sq.GtOrEq{"a.published_at": filter.From})
	}
	if !filter.To.IsZero() {
		q = q.Where(sq.LtOrEq{"a.published_at": filter.To})
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}
	q = q.Limit(uint64(limit))
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapErr(err, "list articles")
	}
	defer rows.Close()

	var out []domain.Article
	for rows.Next() {
		art, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		out = append(out, art)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// mapErr translates driver errors into the storage sentinels.
func mapErr(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}
