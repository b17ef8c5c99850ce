package repository

import (
	"context"
	"errors"
	"fmt"

	"freight-insure/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var ErrDocumentNotFound = errors.New("document not found")

var documentColumns = []string{
	"id", "session_id", "kind", "file_name", "content_type", "file_size", "storage_key", "url",
	"ocr_status", "extracted", "ocr_error", "created_at", "updated_at",
}

// querier is the subset of pgxpool.Pool used here, so the SQL can be
// exercised against a fake in tests.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type DocumentRepository struct {
	db     querier
	logger *zap.Logger
}

func NewDocumentRepository(db *pgxpool.Pool, logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

func createQuery(doc *models.Document) squirrel.InsertBuilder {
	return squirrel.Insert("documents").
		Columns("session_id", "kind", "file_name", "content_type", "file_size", "storage_key", "url", "ocr_status", "created_at", "updated_at").
		Values(doc.SessionID, doc.Kind, doc.FileName, doc.ContentType, doc.FileSize, doc.StorageKey, doc.URL, doc.OCRStatus, doc.CreatedAt, doc.UpdatedAt).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar)
}

// Create inserts doc and sets its generated ID.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	sql, args, err := createQuery(doc).ToSql()
	if err != nil {
		return err
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&doc.ID); err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

func getByIDQuery(id int64) squirrel.SelectBuilder {
	return squirrel.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)
}

func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	sql, args, err := getByIDQuery(id).ToSql()
	if err != nil {
		return nil, err
	}

	var doc models.Document
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&doc.ID, &doc.SessionID, &doc.Kind, &doc.FileName, &doc.ContentType, &doc.FileSize, &doc.StorageKey, &doc.URL,
		&doc.OCRStatus, &doc.Extracted, &doc.OCRError, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}

	return &doc, nil
}

func updateExtractionQuery(id int64, status models.OCRStatus, extracted []byte, ocrErr string) squirrel.UpdateBuilder {
	return squirrel.Update("documents").
		Set("ocr_status", status).
		Set("extracted", extracted).
		Set("ocr_error", ocrErr).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)
}

// UpdateExtraction records the recognition outcome for an uploaded document.
func (r *DocumentRepository) UpdateExtraction(ctx context.Context, id int64, status models.OCRStatus, extracted []byte, ocrErr string) error {
	sql, args, err := updateExtractionQuery(id, status, extracted, ocrErr).ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to update extraction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := squirrel.Delete("documents").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
