package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chainpilot/assistant-backend/internal/types"
)

// ErrNotFound is returned when a resource is not found.
var ErrNotFound = errors.New("not found")

// ConversationRepository handles database operations for conversations.
type ConversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{pool: pool}
}

const conversationColumns = "id, address, title, created_at, updated_at, archived_at"

func scanConversation(row pgx.Row) (*types.Conversation, error) {
	var c types.Conversation
	if err := row.Scan(&c.ID, &c.Address, &c.Title, &c.CreatedAt, &c.UpdatedAt, &c.ArchivedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create creates a new conversation for the given wallet address.
func (r *ConversationRepository) Create(ctx context.Context, address string) (*types.Conversation, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO assistant_conversations (address) VALUES ($1) RETURNING `+conversationColumns,
		address)
	conv, err := scanConversation(row)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

// GetByID returns a conversation if it exists, is not archived, and
// belongs to the given address.
func (r *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID, address string) (*types.Conversation, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM assistant_conversations
		 WHERE id = $1 AND address = $2 AND archived_at IS NULL`,
		id, address)
	conv, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return conv, nil
}

// List returns paginated conversations for an address, newest first.
func (r *ConversationRepository) List(ctx context.Context, address string, skip, take int) ([]types.Conversation, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM assistant_conversations WHERE address = $1 AND archived_at IS NULL`,
		address).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count conversations: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+conversationColumns+` FROM assistant_conversations
		 WHERE address = $1 AND archived_at IS NULL
		 ORDER BY updated_at DESC
		 LIMIT $2 OFFSET $3`,
		address, take, skip)
	if err != nil {
		return nil, 0, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var convs []types.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, *conv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list conversations: %w", err)
	}

	return convs, total, nil
}

// Archive soft-deletes a conversation by setting archived_at.
func (r *ConversationRepository) Archive(ctx context.Context, id uuid.UUID, address string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assistant_conversations SET archived_at = now(), updated_at = now()
		 WHERE id = $1 AND address = $2 AND archived_at IS NULL`,
		id, address)
	if err != nil {
		return fmt.Errorf("archive conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTitle updates the title of a conversation.
func (r *ConversationRepository) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assistant_conversations SET title = $1, updated_at = now() WHERE id = $2`,
		title, id)
	if err != nil {
		return fmt.Errorf("update title: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Touch bumps a conversation's updated_at so it sorts to the top of the
// list after new activity.
func (r *ConversationRepository) Touch(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE assistant_conversations SET updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}
