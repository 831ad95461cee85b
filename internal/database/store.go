package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edgard/tgbotsdk/internal/api"
	apperrors "github.com/edgard/tgbotsdk/internal/errors"
	"github.com/edgard/tgbotsdk/internal/state"
)

// Store is the durable state of a bot.
type Store interface {
	state.Store
	api.OffsetStore

	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// ConversationMarkers lists every stored marker, oldest update first.
	ConversationMarkers(ctx context.Context) ([]ConversationMarker, error)

	// ExpireConversations clears markers last set before olderThan.
	ExpireConversations(ctx context.Context, olderThan time.Time) (int, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore implements Store with sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a Store backed by a migrated database.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
		now:    time.Now,
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) CurrentConversation(ctx context.Context, userID int64) (string, bool, error) {
	var id string
	err := s.db.GetContext(ctx, &id, `SELECT conversation FROM conversation_markers WHERE user_id = ?`, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, apperrors.NewDatabaseError("failed to load conversation marker", err)
	}
	return id, true, nil
}

func (s *sqlxStore) SetCurrentConversation(ctx context.Context, userID int64, id string) error {
	if id == "" {
		return s.ClearCurrentConversation(ctx, userID)
	}

	now := s.now().Unix()
	marker := ConversationMarker{UserID: userID, Conversation: id, CreatedAt: now, UpdatedAt: now}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO conversation_markers (user_id, conversation, created_at, updated_at)
		VALUES (:user_id, :conversation, :created_at, :updated_at)
		ON CONFLICT(user_id) DO UPDATE SET
			conversation = excluded.conversation,
			updated_at = excluded.updated_at`, marker)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save conversation marker", "user_id", userID, "conversation", id, "error", err)
		return apperrors.NewDatabaseError("failed to save conversation marker", err)
	}
	return nil
}

func (s *sqlxStore) ClearCurrentConversation(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversation_markers WHERE user_id = ?`, userID); err != nil {
		return apperrors.NewDatabaseError("failed to clear conversation marker", err)
	}
	return nil
}

func (s *sqlxStore) ConversationMarkers(ctx context.Context) ([]ConversationMarker, error) {
	var markers []ConversationMarker
	err := s.db.SelectContext(ctx, &markers, `
		SELECT user_id, conversation, created_at, updated_at
		FROM conversation_markers
		ORDER BY updated_at, user_id`)
	if err != nil {
		return nil, apperrors.NewDatabaseError("failed to list conversation markers", err)
	}
	return markers, nil
}

func (s *sqlxStore) ExpireConversations(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversation_markers WHERE updated_at < ?`, olderThan.Unix())
	if err != nil {
		return 0, apperrors.NewDatabaseError("failed to expire conversation markers", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperrors.NewDatabaseError("failed to count expired markers", err)
	}
	return int(n), nil
}

func (s *sqlxStore) LoadOffset(ctx context.Context) (int64, error) {
	var row UpdateOffset
	err := s.db.GetContext(ctx, &row, `SELECT next_offset, updated_at FROM update_offsets WHERE id = 1`)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		return 0, apperrors.NewDatabaseError("failed to load update offset", err)
	}
	return row.NextOffset, nil
}

func (s *sqlxStore) SaveOffset(ctx context.Context, offset int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO update_offsets (id, next_offset, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			next_offset = excluded.next_offset,
			updated_at = excluded.updated_at`, offset, s.now().Unix())
	if err != nil {
		return apperrors.NewDatabaseError("failed to save update offset", err)
	}
	return nil
}

// RunSQLMaintenance executes VACUUM on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM cannot run inside a transaction.
	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return apperrors.NewDatabaseError("failed to execute VACUUM", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
