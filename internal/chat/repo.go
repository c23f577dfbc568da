package chat

import (
	"context"
	"database/sql"
	"fmt"
)

// ChatRepo handles database operations for chats and messages
type ChatRepo struct {
	db *sql.DB
}

// NewChatRepo creates a new chat repository
func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

const chatColumns = "id, user_a_id, user_b_id, item_id, created_at, updated_at"

func scanChat(row interface{ Scan(...any) error }) (*Chat, error) {
	chat := &Chat{}
	err := row.Scan(
		&chat.ID,
		&chat.UserAID,
		&chat.UserBID,
		&chat.ItemID,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// GetChat retrieves a chat by id. Returns nil when no chat exists.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int64) (*Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = $1`

	chat, err := scanChat(r.db.QueryRowContext(ctx, query, chatID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return chat, nil
}

// FindByPairAndItem looks up the chat for an unordered participant pair and
// an exact subject item match. A nil itemID matches only chats with no item.
// Returns nil when no such chat exists.
func (r *ChatRepo) FindByPairAndItem(ctx context.Context, userA, userB int64, itemID *int64) (*Chat, error) {
	query := `
		SELECT ` + chatColumns + `
		FROM chats
		WHERE LEAST(user_a_id, user_b_id) = $1
		  AND GREATEST(user_a_id, user_b_id) = $2
		  AND COALESCE(item_id, 0) = COALESCE($3, 0)
	`

	lo, hi := NormalizePair(userA, userB)
	chat, err := scanChat(r.db.QueryRowContext(ctx, query, lo, hi, itemID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find chat: %w", err)
	}
	return chat, nil
}

// InsertChat stores a new chat. The unique index on the normalized pair and
// item makes concurrent duplicate inserts a no-op; in that case InsertChat
// returns nil and the caller re-reads the winning row.
func (r *ChatRepo) InsertChat(ctx context.Context, userA, userB int64, itemID *int64) (*Chat, error) {
	query := `
		INSERT INTO chats (user_a_id, user_b_id, item_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
		RETURNING ` + chatColumns

	chat, err := scanChat(r.db.QueryRowContext(ctx, query, userA, userB, itemID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to insert chat: %w", err)
	}
	return chat, nil
}

// ListForUser retrieves every chat where userID is a participant, most
// recently active first. Each row carries the other participant's display
// identity, the item title and the latest message.
func (r *ChatRepo) ListForUser(ctx context.Context, userID int64) ([]ChatSummary, error) {
	query := `
		SELECT c.id, c.user_a_id, c.user_b_id, c.updated_at,
		       o.id, o.name, o.avatar,
		       i.id, i.title,
		       m.id, m.sender_id, m.content, m.created_at
		FROM chats c
		JOIN users o ON o.id = CASE WHEN c.user_a_id = $1 THEN c.user_b_id ELSE c.user_a_id END
		LEFT JOIN items i ON i.id = c.item_id
		LEFT JOIN LATERAL (
			SELECT id, sender_id, content, created_at
			FROM messages
			WHERE chat_id = c.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) m ON true
		WHERE c.user_a_id = $1 OR c.user_b_id = $1
		ORDER BY c.updated_at DESC, c.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer rows.Close()

	// Initialize as empty slice so JSON encodes to [] rather than null
	summaries := make([]ChatSummary, 0)
	for rows.Next() {
		var (
			s         ChatSummary
			itemID    sql.NullInt64
			itemTitle sql.NullString
			msgID     sql.NullInt64
			msgSender sql.NullInt64
			msgText   sql.NullString
			msgAt     sql.NullTime
		)
		err := rows.Scan(
			&s.ID, &s.UserAID, &s.UserBID, &s.UpdatedAt,
			&s.OtherUser.ID, &s.OtherUser.Name, &s.OtherUser.Avatar,
			&itemID, &itemTitle,
			&msgID, &msgSender, &msgText, &msgAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat summary: %w", err)
		}
		if itemID.Valid {
			s.Item = &ItemRef{ID: itemID.Int64, Title: itemTitle.String}
		}
		if msgID.Valid {
			s.LastMessage = &Message{
				ID:        msgID.Int64,
				ChatID:    s.ID,
				SenderID:  msgSender.Int64,
				Content:   msgText.String,
				CreatedAt: msgAt.Time,
			}
		}
		summaries = append(summaries, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chats: %w", err)
	}

	return summaries, nil
}

// InsertMessage stores a message and bumps the parent chat's updated_at to the
// message's creation time in the same transaction, so the conversation list
// never observes a message with a stale recency marker.
func (r *ChatRepo) InsertMessage(ctx context.Context, chatID, senderID int64, content string) (*Message, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	msg := &Message{ChatID: chatID, SenderID: senderID, Content: content}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO messages (chat_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, chatID, senderID, content).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE chats SET updated_at = $1 WHERE id = $2
	`, msg.CreatedAt, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to bump chat activity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit message: %w", err)
	}

	return msg, nil
}

// ListMessages retrieves a chat's messages oldest first, with sender display
// metadata joined in.
func (r *ChatRepo) ListMessages(ctx context.Context, chatID int64) ([]Message, error) {
	query := `
		SELECT m.id, m.chat_id, m.sender_id, m.content, m.created_at,
		       u.name, u.avatar
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.chat_id = $1
		ORDER BY m.created_at ASC, m.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	// Initialize as empty slice so JSON encodes to [] rather than null
	messages := make([]Message, 0)
	for rows.Next() {
		var (
			msg    Message
			sender UserRef
		)
		err := rows.Scan(
			&msg.ID,
			&msg.ChatID,
			&msg.SenderID,
			&msg.Content,
			&msg.CreatedAt,
			&sender.Name,
			&sender.Avatar,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		sender.ID = msg.SenderID
		msg.Sender = &sender
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// CountUnseenNotifications returns how many message notifications a user has
// not seen yet. Backs the unread badge in the frontend.
func (r *ChatRepo) CountUnseenNotifications(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM message_notifications
		WHERE recipient_id = $1 AND seen_at IS NULL
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}
