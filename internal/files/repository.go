package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"filedepot/internal/apperror"
)

// pageSize is the fixed number of records per listing page.
const pageSize = 20

// FileRepository defines the data access contract for file metadata.
// Ownership-scoped lookups combine id and owner in a single predicate so a
// record owned by someone else is structurally indistinguishable from a
// missing one.
type FileRepository interface {
	// Create inserts the file, assigning a fresh id and creation time.
	Create(ctx context.Context, file *File) error

	// FindByID retrieves a file regardless of owner. Used only for
	// parent-folder resolution during upload validation.
	FindByID(ctx context.Context, id string) (*File, error)

	// FindByIDAndOwner retrieves a file scoped to its owner.
	FindByIDAndOwner(ctx context.Context, id, userID string) (*File, error)

	// SetPublic updates the visibility flag.
	SetPublic(ctx context.Context, id string, isPublic bool) error

	// ListByOwner returns one page of the owner's files. A nil parentID
	// means "all files regardless of parent"; a non-nil parentID -- the
	// root sentinel "0" included -- restricts to direct children.
	ListByOwner(ctx context.Context, userID string, parentID *string, page int) ([]File, error)

	// Count returns the total number of file records. Used by /stats.
	Count(ctx context.Context) (int, error)
}

// fileRepository implements FileRepository with hand-written MariaDB queries.
type fileRepository struct {
	db *sql.DB
}

// NewFileRepository creates a new file repository backed by the given DB pool.
func NewFileRepository(db *sql.DB) FileRepository {
	return &fileRepository{db: db}
}

const fileColumns = `id, user_id, name, type, is_public, parent_id, COALESCE(local_path, ''), created_at`

// scanFile scans one row into a File.
func scanFile(row interface{ Scan(...any) error }, f *File) error {
	return row.Scan(
		&f.ID,
		&f.UserID,
		&f.Name,
		&f.Type,
		&f.IsPublic,
		&f.ParentID,
		&f.LocalPath,
		&f.CreatedAt,
	)
}

// Create inserts a new file row, generating the id at insert time.
func (r *fileRepository) Create(ctx context.Context, file *File) error {
	file.ID = uuid.NewString()
	file.CreatedAt = time.Now().UTC()

	var localPath any
	if file.LocalPath != "" {
		localPath = file.LocalPath
	}

	query := `INSERT INTO files (id, user_id, name, type, is_public, parent_id, local_path, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		file.ID,
		file.UserID,
		file.Name,
		file.Type,
		file.IsPublic,
		file.ParentID,
		localPath,
		file.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting file: %w", err)
	}

	return nil
}

// FindByID retrieves a file by id regardless of owner.
func (r *fileRepository) FindByID(ctx context.Context, id string) (*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = ?`

	f := &File{}
	err := scanFile(r.db.QueryRowContext(ctx, query, id), f)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying file by id: %w", err)
	}

	return f, nil
}

// FindByIDAndOwner retrieves a file scoped to its owner in one predicate.
func (r *fileRepository) FindByIDAndOwner(ctx context.Context, id, userID string) (*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = ? AND user_id = ?`

	f := &File{}
	err := scanFile(r.db.QueryRowContext(ctx, query, id, userID), f)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("Not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying file by id and owner: %w", err)
	}

	return f, nil
}

// SetPublic updates the visibility flag for a file.
func (r *fileRepository) SetPublic(ctx context.Context, id string, isPublic bool) error {
	query := `UPDATE files SET is_public = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, isPublic, id)
	if err != nil {
		return fmt.Errorf("updating file visibility: %w", err)
	}

	n, _ := result.RowsAffected()
	// Setting the current value affects zero rows on MariaDB; only a
	// truly missing row is an error, so re-check before reporting one.
	if n == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
	}

	return nil
}

// ListByOwner returns one page of the owner's files in stable storage order.
func (r *fileRepository) ListByOwner(ctx context.Context, userID string, parentID *string, page int) ([]File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE user_id = ?`
	args := []any{userID}

	if parentID != nil {
		query += ` AND parent_id = ?`
		args = append(args, *parentID)
	}

	// No user-meaningful sort is defined; creation order with the id as a
	// tiebreaker keeps pagination stable for a given dataset.
	query += ` ORDER BY created_at, id LIMIT ? OFFSET ?`
	args = append(args, pageSize, page*pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		var f File
		if err := scanFile(rows, &f); err != nil {
			return nil, fmt.Errorf("scanning file row: %w", err)
		}
		out = append(out, f)
	}

	return out, rows.Err()
}

// Count returns the total number of file records.
func (r *fileRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting files: %w", err)
	}
	return count, nil
}
