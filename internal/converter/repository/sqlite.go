package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fortio.org/safecast"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/vmihailenco/msgpack/v5"

	"diagraph/internal/converter/models"
)

var ErrNotFound = errors.New("run not found")

// ============================================================
// SQLite Repository
// ============================================================

// Repository stores conversion runs: one row per run and page, plus the
// vertices and edges of every successful page.
type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init запускает миграции.
func (r *Repository) Init(ctx context.Context, migrationsPath string) error {
	if err := r.runMigrations(ctx, migrationsPath); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// Ping проверяет соединение с базой
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveRun writes a run and all of its pages in one transaction.
func (r *Repository) SaveRun(ctx context.Context, run *models.Run) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO runs (id, source, format, created_at)
        VALUES (?, ?, ?, ?)
    `, run.ID, run.Source, run.Format, run.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, page := range run.Pages {
		if err := savePage(ctx, tx, run.ID, i, page); err != nil {
			return fmt.Errorf("page %d: %w", page.PageID, err)
		}
	}
	return tx.Commit()
}

func savePage(ctx context.Context, tx *sql.Tx, runID string, position int, page models.PageResult) error {
	stats, err := encodeBlob(page.Stats)
	if err != nil {
		return err
	}
	var shapeID sql.NullInt64
	if page.ShapeID != nil {
		shapeID = sql.NullInt64{Int64: *page.ShapeID, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
        INSERT INTO pages (run_id, page_id, position, name, status, error, stage, shape_id, stats)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, runID, page.PageID, position, page.Name, page.Status, page.Error, page.Stage, shapeID, stats)
	if err != nil {
		return fmt.Errorf("insert page: %w", err)
	}

	for _, v := range page.Vertices {
		attrs, err := encodeBlob(v.Attrs)
		if err != nil {
			return err
		}
		var groupID sql.NullInt64
		if v.GroupID != nil {
			groupID = sql.NullInt64{Int64: *v.GroupID, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
            INSERT INTO vertices (run_id, page_id, shape_id, id, label, is_1d, grp, group_id,
                name, symbol, type, page_name, cx, cy, attrs)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        `, runID, page.PageID, v.ShapeID, v.ID, v.Label, v.Is1D, v.Group, groupID,
			v.Name, v.SymbolName, v.Type, v.PageName, v.Center.X, v.Center.Y, attrs)
		if err != nil {
			return fmt.Errorf("insert vertex %s: %w", v.ID, err)
		}
	}

	for _, e := range page.Edges {
		var px, py sql.NullFloat64
		if e.Point != nil {
			px = sql.NullFloat64{Float64: e.Point.X, Valid: true}
			py = sql.NullFloat64{Float64: e.Point.Y, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
            INSERT INTO edges (run_id, page_id, from_id, to_id, type, px, py)
            VALUES (?, ?, ?, ?, ?, ?, ?)
        `, runID, page.PageID, e.From, e.To, e.Type, px, py)
		if err != nil {
			return fmt.Errorf("insert edge %d -> %d: %w", e.From, e.To, err)
		}
	}
	return nil
}

// GetRun loads a stored run with its pages in document order.
func (r *Repository) GetRun(ctx context.Context, id string) (*models.Run, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, source, format, created_at
        FROM runs
        WHERE id = ?
    `, id)

	var run models.Run
	var created string
	if err := row.Scan(&run.ID, &run.Source, &run.Format, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("run %s: created_at: %w", id, err)
	}
	run.CreatedAt = t

	pages, err := r.loadPages(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range pages {
		if pages[i].Status != models.StatusOK {
			continue
		}
		if pages[i].Vertices, err = r.loadVertices(ctx, id, pages[i].PageID); err != nil {
			return nil, err
		}
		if pages[i].Edges, err = r.loadEdges(ctx, id, pages[i].PageID); err != nil {
			return nil, err
		}
	}
	run.Pages = pages
	return &run, nil
}

func (r *Repository) loadPages(ctx context.Context, runID string) ([]models.PageResult, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT page_id, name, status, error, stage, shape_id, stats
        FROM pages
        WHERE run_id = ?
        ORDER BY position
    `, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []models.PageResult
	for rows.Next() {
		var p models.PageResult
		var shapeID sql.NullInt64
		var stats []byte
		if err := rows.Scan(&p.PageID, &p.Name, &p.Status, &p.Error, &p.Stage, &shapeID, &stats); err != nil {
			return nil, err
		}
		if shapeID.Valid {
			id := shapeID.Int64
			p.ShapeID = &id
		}
		if len(stats) > 0 {
			if err := decodeBlob(stats, &p.Stats); err != nil {
				return nil, fmt.Errorf("page %d stats: %w", p.PageID, err)
			}
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (r *Repository) loadVertices(ctx context.Context, runID string, pageID int64) ([]models.VertexView, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT shape_id, id, label, is_1d, grp, group_id, name, symbol, type, page_name, cx, cy, attrs
        FROM vertices
        WHERE run_id = ? AND page_id = ?
        ORDER BY shape_id
    `, runID, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.VertexView
	for rows.Next() {
		var v models.VertexView
		var groupID sql.NullInt64
		var attrs []byte
		if err := rows.Scan(&v.ShapeID, &v.ID, &v.Label, &v.Is1D, &v.Group, &groupID,
			&v.Name, &v.SymbolName, &v.Type, &v.PageName, &v.Center.X, &v.Center.Y, &attrs); err != nil {
			return nil, err
		}
		if groupID.Valid {
			id := groupID.Int64
			v.GroupID = &id
		}
		if len(attrs) > 0 {
			if err := decodeBlob(attrs, &v.Attrs); err != nil {
				return nil, fmt.Errorf("vertex %s attrs: %w", v.ID, err)
			}
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *Repository) loadEdges(ctx context.Context, runID string, pageID int64) ([]models.EdgeView, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT from_id, to_id, type, px, py
        FROM edges
        WHERE run_id = ? AND page_id = ?
        ORDER BY from_id, to_id
    `, runID, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EdgeView
	for rows.Next() {
		var e models.EdgeView
		var px, py sql.NullFloat64
		if err := rows.Scan(&e.From, &e.To, &e.Type, &px, &py); err != nil {
			return nil, err
		}
		if px.Valid && py.Valid {
			e.Point = &models.Point{X: px.Float64, Y: py.Float64}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListRuns returns the newest runs first. A limit <= 0 lists all of them.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]models.RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
        SELECT r.id, r.source, r.format, r.created_at,
               COUNT(p.page_id),
               COALESCE(SUM(CASE WHEN p.status = ? THEN 1 ELSE 0 END), 0)
        FROM runs r
        LEFT JOIN pages p ON p.run_id = r.id
        GROUP BY r.id
        ORDER BY r.created_at DESC, r.id
        LIMIT ?
    `, models.StatusFailed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RunSummary
	for rows.Next() {
		var s models.RunSummary
		var created string
		var pages, failed int64
		if err := rows.Scan(&s.ID, &s.Source, &s.Format, &created, &pages, &failed); err != nil {
			return nil, err
		}
		if s.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("run %s: created_at: %w", s.ID, err)
		}
		if s.Pages, err = safecast.Conv[int](pages); err != nil {
			return nil, err
		}
		if s.Failed, err = safecast.Conv[int](failed); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and everything stored under it.
func (r *Repository) DeleteRun(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"edges", "vertices", "pages"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", id); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// ============================================================
// Migrations & Blobs
// ============================================================

func (r *Repository) runMigrations(ctx context.Context, migrationsPath string) error {
	data, err := os.ReadFile(migrationsPath)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

// атрибуты вершин и статистика хранятся как msgpack
func encodeBlob(v any) ([]byte, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode blob: %w", err)
	}
	return b, nil
}

func decodeBlob(b []byte, v any) error {
	if err := msgpack.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode blob: %w", err)
	}
	return nil
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
