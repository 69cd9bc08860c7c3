package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Venkatesh01777/Personal-Finance-Assistant/constants"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/common"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/entity"
)

// DocumentRepository persists ReceiptDocuments and the processing fields the
// orchestrator drives. Status/attempts updates are last-write-wins; only the
// orchestrator mutates them, so no extra locking is layered here.
type DocumentRepository interface {
	Create(ctx context.Context, sourcePath, mimeType string, fileSize int64) (*entity.ReceiptDocument, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ReceiptDocument, error)
	SetStatus(ctx context.Context, id uuid.UUID, status constants.DocStatus) error
	SaveResult(ctx context.Context, id uuid.UUID, status constants.DocStatus, res *entity.ExtractionResult) error
	RecordFailure(ctx context.Context, id uuid.UUID, message string) (attempts int, err error)
	ResetForReprocess(ctx context.Context, id uuid.UUID) error
	ListByStatus(ctx context.Context, status constants.DocStatus) ([]*entity.ReceiptDocument, error)
	Close() error
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS receipt_documents (
	id            TEXT PRIMARY KEY,
	source_path   TEXT NOT NULL,
	mime_type     TEXT NOT NULL,
	file_size     INTEGER NOT NULL,
	status        TEXT NOT NULL,
	attempts      INTEGER NOT NULL DEFAULT 0,
	last_error    TEXT,
	last_error_at TIMESTAMP,
	result_json   TEXT,
	uploaded_at   TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_receipt_documents_status ON receipt_documents(status);
`

type sqliteDocs struct {
	db  *sql.DB
	log *slog.Logger
}

// Open connects to the sqlite document store and bootstraps the schema.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (DocumentRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	logger.Info("document store ready", "dsn", dsn)
	return &sqliteDocs{db: db, log: logger}, nil
}

func (r *sqliteDocs) Close() error { return r.db.Close() }

func (r *sqliteDocs) Create(ctx context.Context, sourcePath, mimeType string, fileSize int64) (*entity.ReceiptDocument, error) {
	now := time.Now().UTC()
	doc := &entity.ReceiptDocument{
		ID:         uuid.New(),
		SourcePath: sourcePath,
		MimeType:   mimeType,
		FileSize:   fileSize,
		Status:     constants.DocStatusUploaded,
		UploadedAt: now,
		UpdatedAt:  now,
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO receipt_documents (id, source_path, mime_type, file_size, status, attempts, uploaded_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		doc.ID.String(), doc.SourcePath, doc.MimeType, doc.FileSize, string(doc.Status), doc.UploadedAt, doc.UpdatedAt)
	if err != nil {
		r.log.Error("document create failed", "path", sourcePath, "error", err)
		return nil, fmt.Errorf("create document: %w", err)
	}
	r.log.Info("document created", "id", doc.ID, "path", sourcePath, "mime", mimeType, "size", fileSize)
	return doc, nil
}

func (r *sqliteDocs) GetByID(ctx context.Context, id uuid.UUID) (*entity.ReceiptDocument, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, source_path, mime_type, file_size, status, attempts, last_error, last_error_at, result_json, uploaded_at, updated_at
		 FROM receipt_documents WHERE id = ?`, id.String())
	return scanDocument(row)
}

func (r *sqliteDocs) SetStatus(ctx context.Context, id uuid.UUID, status constants.DocStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE receipt_documents SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return requireRow(res, id)
}

func (r *sqliteDocs) SaveResult(ctx context.Context, id uuid.UUID, status constants.DocStatus, extRes *entity.ExtractionResult) error {
	b, err := json.Marshal(extRes)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE receipt_documents SET status = ?, result_json = ?, updated_at = ? WHERE id = ?`,
		string(status), string(b), time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return requireRow(res, id)
}

// RecordFailure increments the attempt counter, stores the error with its
// timestamp, and marks the document failed. Returns the new attempt count.
func (r *sqliteDocs) RecordFailure(ctx context.Context, id uuid.UUID, message string) (int, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE receipt_documents
		 SET status = ?, attempts = attempts + 1, last_error = ?, last_error_at = ?, updated_at = ?
		 WHERE id = ?`,
		string(constants.DocStatusFailed), message, now, now, id.String())
	if err != nil {
		return 0, fmt.Errorf("record failure: %w", err)
	}
	if err := requireRow(res, id); err != nil {
		return 0, err
	}
	var attempts int
	if err := r.db.QueryRowContext(ctx,
		`SELECT attempts FROM receipt_documents WHERE id = ?`, id.String()).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("read attempts: %w", err)
	}
	r.log.Warn("document failed", "id", id, "attempts", attempts, "error", message)
	return attempts, nil
}

// ResetForReprocess clears extraction data and attempt state ahead of an
// explicit reprocess request.
func (r *sqliteDocs) ResetForReprocess(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE receipt_documents
		 SET status = ?, attempts = 0, last_error = NULL, last_error_at = NULL, result_json = NULL, updated_at = ?
		 WHERE id = ?`,
		string(constants.DocStatusUploaded), time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("reset document: %w", err)
	}
	return requireRow(res, id)
}

func (r *sqliteDocs) ListByStatus(ctx context.Context, status constants.DocStatus) ([]*entity.ReceiptDocument, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, source_path, mime_type, file_size, status, attempts, last_error, last_error_at, result_json, uploaded_at, updated_at
		 FROM receipt_documents WHERE status = ? ORDER BY uploaded_at`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*entity.ReceiptDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*entity.ReceiptDocument, error) {
	var (
		doc        entity.ReceiptDocument
		idStr      string
		status     string
		lastErr    sql.NullString
		lastErrAt  sql.NullTime
		resultJSON sql.NullString
	)
	err := row.Scan(&idStr, &doc.SourcePath, &doc.MimeType, &doc.FileSize, &status,
		&doc.Attempts, &lastErr, &lastErrAt, &resultJSON, &doc.UploadedAt, &doc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}
	doc.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse document id: %w", err)
	}
	doc.Status = constants.DocStatus(status)
	if lastErr.Valid {
		doc.LastError = &entity.LastError{Message: lastErr.String}
		if lastErrAt.Valid {
			doc.LastError.At = lastErrAt.Time
		}
	}
	if resultJSON.Valid && resultJSON.String != "" {
		var res entity.ExtractionResult
		if err := json.Unmarshal([]byte(resultJSON.String), &res); err != nil {
			return nil, fmt.Errorf("decode stored result: %w", err)
		}
		doc.Result = &res
	}
	return &doc, nil
}

func requireRow(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}
	return nil
}
