package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chainpilot/assistant-backend/internal/types"
)

// MessageRepository handles database operations for messages.
type MessageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

const messageColumns = "id, conversation_id, role, content, metadata, created_at"

func scanMessage(row pgx.Row) (*types.Message, error) {
	var m types.Message
	if err := row.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Metadata, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// Create stores a new message and fills in its generated ID and timestamp.
func (r *MessageRepository) Create(ctx context.Context, msg *types.Message) error {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO assistant_messages (conversation_id, role, content, metadata)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		msg.ConversationID, string(msg.Role), msg.Content, msg.Metadata)
	if err := row.Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// UpdateMetadata replaces the metadata of an existing message. Used for
// targeted in-place updates such as attaching an action after the fact.
func (r *MessageRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, metadata []byte) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assistant_messages SET metadata = $1 WHERE id = $2`,
		metadata, id)
	if err != nil {
		return fmt.Errorf("update message metadata: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Insert stores a message keeping its original ID and timestamp. Used
// when restoring a transcript snapshot; duplicate IDs are skipped.
func (r *MessageRepository) Insert(ctx context.Context, msg *types.Message) error {
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO assistant_messages (id, conversation_id, role, content, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO NOTHING`,
		msg.ID, msg.ConversationID, string(msg.Role), msg.Content, msg.Metadata, msg.CreatedAt); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// GetByConversationID returns all messages for a conversation, ordered by
// creation time.
func (r *MessageRepository) GetByConversationID(ctx context.Context, convID uuid.UUID) ([]types.Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+messageColumns+` FROM assistant_messages
		 WHERE conversation_id = $1
		 ORDER BY created_at, id`,
		convID)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows)
}

// GetRecent returns the most recent limit messages in chronological order.
func (r *MessageRepository) GetRecent(ctx context.Context, convID uuid.UUID, limit int) ([]types.Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+messageColumns+` FROM (
		     SELECT `+messageColumns+` FROM assistant_messages
		     WHERE conversation_id = $1
		     ORDER BY created_at DESC, id DESC
		     LIMIT $2
		 ) recent ORDER BY created_at, id`,
		convID, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent messages: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows)
}

// DeleteByConversationID removes every message in a conversation. Used
// when a transcript is cleared and reseeded with a welcome message.
func (r *MessageRepository) DeleteByConversationID(ctx context.Context, convID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM assistant_messages WHERE conversation_id = $1`, convID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}

func collectMessages(rows pgx.Rows) ([]types.Message, error) {
	var msgs []types.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}
	return msgs, nil
}
