package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuslink/beacon/internal/domain/model"
	"github.com/campuslink/beacon/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS team_posts (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL,
    event_name TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    author_id TEXT NOT NULL,
    author JSONB NOT NULL DEFAULT '{}',
    required_skills TEXT[] NOT NULL DEFAULT '{}',
    max_team_size INTEGER NOT NULL CHECK (max_team_size > 0),
    created_at TIMESTAMPTZ NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL,
    seq BIGSERIAL
);
ALTER TABLE team_posts ADD COLUMN IF NOT EXISTS seq BIGSERIAL;
CREATE TABLE IF NOT EXISTS applications (
    id TEXT PRIMARY KEY,
    post_id TEXT NOT NULL,
    applicant_id TEXT NOT NULL,
    message TEXT NOT NULL,
    relevant_skills TEXT[] NOT NULL DEFAULT '{}',
    submitted_at TIMESTAMPTZ NOT NULL,
    seq BIGSERIAL,
    CONSTRAINT fk_post
        FOREIGN KEY(post_id)
        REFERENCES team_posts(id)
        ON DELETE CASCADE,
    CONSTRAINT uq_post_applicant UNIQUE (post_id, applicant_id)
);
CREATE INDEX IF NOT EXISTS idx_team_posts_event_order ON team_posts(event_id, created_at DESC, seq DESC);
CREATE INDEX IF NOT EXISTS idx_team_posts_expires ON team_posts(expires_at);
`

const postColumns = `id, event_id, event_name, title, description, author_id, author, required_skills, max_team_size, created_at, expires_at`

const uniqueViolation = "23505"

// PostgresStore persists posts in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool    *pgxpool.Pool
	log     logger.Logger
	migrate bool
}

// NewPostgresStore connects to dsn, pings the server and, unless disabled
// with WithMigrate(false), creates the schema.
func NewPostgresStore(ctx context.Context, dsn string, opts ...PostgresOption) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool, log: logger.Named("postgres_store"), migrate: true}
	for _, opt := range opts {
		opt(s)
	}
	if s.migrate {
		if err := s.CreateTables(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return s, nil
}

// CreateTables applies the schema idempotently.
func (s *PostgresStore) CreateTables(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Create(ctx context.Context, post model.TeamPost) error {
	author, err := json.Marshal(post.Author)
	if err != nil {
		return fmt.Errorf("failed to marshal author: %w", err)
	}
	query := `INSERT INTO team_posts (` + postColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = s.pool.Exec(ctx, query,
		post.ID, post.EventID, post.EventName, post.Title, post.Description, post.AuthorID,
		author, nonNil(post.RequiredSkills), post.MaxTeamSize, post.CreatedAt, post.ExpiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateID
		}
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByEvent(ctx context.Context, eventID string) ([]model.TeamPost, error) {
	query := `SELECT ` + postColumns + ` FROM team_posts WHERE event_id = $1 ORDER BY created_at DESC, seq DESC`
	return s.queryPosts(ctx, query, eventID)
}

func (s *PostgresStore) List(ctx context.Context) ([]model.TeamPost, error) {
	query := `SELECT ` + postColumns + ` FROM team_posts ORDER BY created_at DESC, seq DESC`
	return s.queryPosts(ctx, query)
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (model.TeamPost, error) {
	return s.getPost(ctx, s.pool, id, "")
}

func (s *PostgresStore) AddApplication(ctx context.Context, postID string, app model.Application, now time.Time) (model.TeamPost, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.TeamPost{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The row lock serializes concurrent applications to one post.
	post, err := s.getPost(ctx, tx, postID, " FOR UPDATE")
	if err != nil {
		return model.TeamPost{}, err
	}
	if err := post.CanAccept(app.ApplicantID, now); err != nil {
		return model.TeamPost{}, err
	}

	app.PostID = postID
	app.RelevantSkills = model.NormalizeSkills(app.RelevantSkills)
	_, err = tx.Exec(ctx,
		`INSERT INTO applications (id, post_id, applicant_id, message, relevant_skills, submitted_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		app.ID, app.PostID, app.ApplicantID, app.Message, app.RelevantSkills, app.SubmittedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.TeamPost{}, model.ErrAlreadyApplied
		}
		return model.TeamPost{}, fmt.Errorf("failed to insert application: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return model.TeamPost{}, fmt.Errorf("failed to commit application: %w", err)
	}

	post.Applicants = append(post.Applicants, app)
	return post, nil
}

func (s *PostgresStore) PurgeExpired(ctx context.Context, before time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM team_posts WHERE expires_at <= $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge posts: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) Count(ctx context.Context) int {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM team_posts`).Scan(&count); err != nil {
		s.log.Error(ctx, "count posts failed", logger.Error(err))
		return 0
	}
	return count
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *PostgresStore) getPost(ctx context.Context, q querier, id, suffix string) (model.TeamPost, error) {
	row := q.QueryRow(ctx, `SELECT `+postColumns+` FROM team_posts WHERE id = $1`+suffix, id)
	post, err := scanPost(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.TeamPost{}, ErrNotFound
	}
	if err != nil {
		return model.TeamPost{}, fmt.Errorf("failed to load post: %w", err)
	}
	byPost, err := s.loadApplications(ctx, q, []string{id})
	if err != nil {
		return model.TeamPost{}, err
	}
	post.Applicants = byPost[id]
	if post.Applicants == nil {
		post.Applicants = []model.Application{}
	}
	return post, nil
}

func (s *PostgresStore) queryPosts(ctx context.Context, query string, args ...any) ([]model.TeamPost, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.TeamPost, 0)
	ids := make([]string, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return posts, nil
	}

	byPost, err := s.loadApplications(ctx, s.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Applicants = byPost[posts[i].ID]
		if posts[i].Applicants == nil {
			posts[i].Applicants = []model.Application{}
		}
	}
	return posts, nil
}

func (s *PostgresStore) loadApplications(ctx context.Context, q querier, postIDs []string) (map[string][]model.Application, error) {
	rows, err := q.Query(ctx,
		`SELECT id, post_id, applicant_id, message, relevant_skills, submitted_at FROM applications WHERE post_id = ANY($1) ORDER BY seq ASC`,
		postIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]model.Application, len(postIDs))
	for rows.Next() {
		var a model.Application
		if err := rows.Scan(&a.ID, &a.PostID, &a.ApplicantID, &a.Message, &a.RelevantSkills, &a.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		out[a.PostID] = append(out[a.PostID], a)
	}
	return out, rows.Err()
}

func scanPost(row pgx.Row) (model.TeamPost, error) {
	var (
		p      model.TeamPost
		author []byte
	)
	err := row.Scan(&p.ID, &p.EventID, &p.EventName, &p.Title, &p.Description, &p.AuthorID,
		&author, &p.RequiredSkills, &p.MaxTeamSize, &p.CreatedAt, &p.ExpiresAt)
	if err != nil {
		return model.TeamPost{}, err
	}
	if len(author) > 0 {
		if err := json.Unmarshal(author, &p.Author); err != nil {
			return model.TeamPost{}, fmt.Errorf("failed to decode author: %w", err)
		}
	}
	return p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
