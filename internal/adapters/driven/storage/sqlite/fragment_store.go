package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/synindex/internal/core/domain"
	"github.com/custodia-labs/synindex/internal/core/ports/driven"
)

const (
	metaModel      = "model"
	metaDimensions = "dimensions"
)

const fragmentColumns = `id, document_path, document_fingerprint, container_name, container_kind,
	level, kind, name, local_index, start_line, end_line, parent_id,
	embedding_text, embedding, updated_at`

// fragmentStore implements driven.FragmentStore.
type fragmentStore struct {
	store *Store
}

var _ driven.FragmentStore = (*fragmentStore)(nil)

// Insert persists a new fragment and returns its identity.
// UpdatedAt is set by the store on every write.
func (s *fragmentStore) Insert(ctx context.Context, f *domain.Fragment) (int64, error) {
	if f == nil {
		return 0, domain.ErrInvalidInput
	}
	if err := s.checkFragment(ctx, f); err != nil {
		return 0, err
	}

	updatedAt := time.Now().UTC()
	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO fragments (document_path, document_fingerprint, container_name, container_kind,
			level, kind, name, local_index, start_line, end_line, parent_id,
			embedding_text, embedding, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, f.DocumentPath, f.DocumentFingerprint, f.ContainerName, string(f.ContainerKind),
		string(f.Level), f.Kind, f.Name, f.LocalIndex, f.Span.Start, f.Span.End,
		nullInt64(f.ParentID), f.EmbeddingText, float32SliceToBytes(f.Embedding),
		updatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("inserting fragment: %w", classifyConstraint(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading fragment id: %w", err)
	}
	return id, nil
}

// Update overwrites the mutable fields of an existing fragment.
func (s *fragmentStore) Update(ctx context.Context, id int64, f *domain.Fragment) error {
	if f == nil {
		return domain.ErrInvalidInput
	}
	if err := s.checkFragment(ctx, f); err != nil {
		return err
	}

	updatedAt := time.Now().UTC()
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE fragments SET
			document_fingerprint = ?,
			container_name = ?,
			container_kind = ?,
			level = ?,
			kind = ?,
			name = ?,
			local_index = ?,
			start_line = ?,
			end_line = ?,
			parent_id = ?,
			embedding_text = ?,
			embedding = ?,
			updated_at = ?
		WHERE id = ?
	`, f.DocumentFingerprint, f.ContainerName, string(f.ContainerKind),
		string(f.Level), f.Kind, f.Name, f.LocalIndex, f.Span.Start, f.Span.End,
		nullInt64(f.ParentID), f.EmbeddingText, float32SliceToBytes(f.Embedding),
		updatedAt.Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("updating fragment %d: %w", id, classifyConstraint(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating fragment %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("fragment %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Get retrieves a fragment by identity.
func (s *fragmentStore) Get(ctx context.Context, id int64) (*domain.Fragment, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+fragmentColumns+" FROM fragments WHERE id = ?", id)

	f, err := scanFragment(row)
	if isNoRows(err) {
		return nil, fmt.Errorf("fragment %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Delete removes a fragment; the foreign key cascades to its descendants.
func (s *fragmentStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM fragments WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting fragment %d: %w", id, err)
	}
	return nil
}

// DeleteByDocument removes every fragment of a document.
func (s *fragmentStore) DeleteByDocument(ctx context.Context, path string) (int, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	// Cascaded rows are not counted by RowsAffected, so count first.
	var count int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM fragments WHERE document_path = ?", path).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting fragments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM fragments WHERE document_path = ?", path); err != nil {
		return 0, fmt.Errorf("deleting fragments of %s: %w", path, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return count, nil
}

// ListByDocument returns the fragments of one document in insertion order.
func (s *fragmentStore) ListByDocument(ctx context.Context, path string) ([]domain.Fragment, error) {
	return s.query(ctx,
		"SELECT "+fragmentColumns+" FROM fragments WHERE document_path = ? ORDER BY id", path)
}

// ListAll returns every fragment in insertion order.
func (s *fragmentStore) ListAll(ctx context.Context) ([]domain.Fragment, error) {
	return s.query(ctx, "SELECT "+fragmentColumns+" FROM fragments ORDER BY id")
}

// ListDocumentPaths returns every document with stored fragments.
func (s *fragmentStore) ListDocumentPaths(ctx context.Context) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT DISTINCT document_path FROM fragments ORDER BY document_path")
	if err != nil {
		return nil, fmt.Errorf("querying document paths: %w", err)
	}
	defer rows.Close()

	var paths []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning document path: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document paths: %w", err)
	}
	return paths, nil
}

// Rank scores every stored vector against query.
// Brute force over all rows; the corpus is small.
func (s *fragmentStore) Rank(ctx context.Context, query []float32, topK int) ([]domain.ScoredFragment, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return domain.RankFragments(query, all, topK), nil
}

// Stats returns document and fragment counts.
func (s *fragmentStore) Stats(ctx context.Context) (domain.StoreStats, error) {
	var stats domain.StoreStats
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT document_path), COUNT(*) FROM fragments").
		Scan(&stats.Documents, &stats.Fragments)
	if err != nil {
		return domain.StoreStats{}, fmt.Errorf("querying stats: %w", err)
	}
	return stats, nil
}

// EnsureModel records the embedding model, clearing fragments built with
// a different one.
func (s *fragmentStore) EnsureModel(ctx context.Context, model string, dimensions int) (bool, error) {
	if model == "" || dimensions <= 0 {
		return false, fmt.Errorf("%w: model %q with %d dimensions", domain.ErrInvalidInput, model, dimensions)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	meta := map[string]string{}
	rows, err := tx.QueryContext(ctx, "SELECT key, value FROM index_meta")
	if err != nil {
		return false, fmt.Errorf("reading index meta: %w", err)
	}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return false, fmt.Errorf("scanning index meta: %w", err)
		}
		meta[k] = v
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("iterating index meta: %w", err)
	}

	dims := strconv.Itoa(dimensions)
	if meta[metaModel] == model && meta[metaDimensions] == dims {
		s.store.setDims(dimensions)
		return false, tx.Commit()
	}

	// An empty meta table with leftover fragments is treated as a mismatch.
	cleared := false
	res, err := tx.ExecContext(ctx, "DELETE FROM fragments")
	if err != nil {
		return false, fmt.Errorf("clearing fragments: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		cleared = true
	}

	for k, v := range map[string]string{metaModel: model, metaDimensions: dims} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO index_meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, v); err != nil {
			return false, fmt.Errorf("writing index meta: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing transaction: %w", err)
	}
	s.store.setDims(dimensions)
	return cleared, nil
}

// Close closes the underlying store.
func (s *fragmentStore) Close() error {
	return s.store.Close()
}

func (s *fragmentStore) query(ctx context.Context, query string, args ...any) ([]domain.Fragment, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying fragments: %w", err)
	}
	defer rows.Close()

	fragments := []domain.Fragment{}
	for rows.Next() {
		f, err := scanFragment(rows)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fragments: %w", err)
	}
	return fragments, nil
}

// checkFragment validates the fields the schema cannot.
func (s *fragmentStore) checkFragment(ctx context.Context, f *domain.Fragment) error {
	if f.DocumentPath == "" || !f.Span.IsValid() || !f.Level.IsValid() {
		return fmt.Errorf("%w: fragment %s:%s", domain.ErrInvalidInput, f.DocumentPath, f.Span)
	}
	dims, err := s.store.dimensions(ctx)
	if err != nil {
		return err
	}
	if len(f.Embedding) == 0 || (dims > 0 && len(f.Embedding) != dims) {
		return fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(f.Embedding), dims)
	}
	return nil
}

// dimensions returns the recorded embedding dimension, or 0 if no model
// has been recorded yet.
func (s *Store) dimensions(ctx context.Context) (int, error) {
	s.metaMu.RLock()
	dims := s.dims
	s.metaMu.RUnlock()
	if dims > 0 {
		return dims, nil
	}

	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM index_meta WHERE key = ?", metaDimensions).Scan(&value)
	if isNoRows(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading index dimensions: %w", err)
	}
	dims, err = strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parsing index dimensions %q: %w", value, err)
	}
	s.setDims(dims)
	return dims, nil
}

func (s *Store) setDims(dims int) {
	s.metaMu.Lock()
	defer s.metaMu.Unlock()
	s.dims = dims
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanFragment scans a single fragment row.
func scanFragment(row rowScanner) (*domain.Fragment, error) {
	var (
		f             domain.Fragment
		containerKind string
		level         string
		parentID      sql.NullInt64
		embedding     []byte
		updatedAt     string
	)

	if err := row.Scan(&f.ID, &f.DocumentPath, &f.DocumentFingerprint, &f.ContainerName,
		&containerKind, &level, &f.Kind, &f.Name, &f.LocalIndex, &f.Span.Start, &f.Span.End,
		&parentID, &f.EmbeddingText, &embedding, &updatedAt); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning fragment: %w", err)
	}

	f.ContainerKind = domain.ContainerKind(containerKind)
	f.Level = domain.FragmentLevel(level)
	if parentID.Valid {
		id := parentID.Int64
		f.ParentID = &id
	}
	f.Embedding = bytesToFloat32Slice(embedding)
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		f.UpdatedAt = t
	}
	return &f, nil
}

// nullInt64 returns nil for a nil pointer, otherwise the value.
func nullInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
