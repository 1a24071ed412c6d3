package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hridayan/khata/internal/common"
	"github.com/hridayan/khata/internal/model"
)

// LoadUserMemory retrieves a user's category memory, or common.ErrNotFound
// for users that have never learned anything.
func (s *SQLiteStorage) LoadUserMemory(ctx context.Context, userID string) (*model.UserMemory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM user_memories WHERE user_id = ?`, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: memory for user %s", common.ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user memory: %w", err)
	}

	var memory model.UserMemory
	if err := json.Unmarshal([]byte(data), &memory); err != nil {
		return nil, fmt.Errorf("failed to decode user memory for %s: %w", userID, err)
	}
	memory.Normalize()
	return &memory, nil
}

// SaveUserMemory upserts a user's category memory.
func (s *SQLiteStorage) SaveUserMemory(ctx context.Context, userID string, memory *model.UserMemory) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if memory == nil {
		return fmt.Errorf("%w: memory", ErrNilParameter)
	}

	data, err := json.Marshal(memory)
	if err != nil {
		return fmt.Errorf("failed to encode user memory: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_memories (user_id, data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			data = excluded.data,
			updated_at = CURRENT_TIMESTAMP`,
		userID, string(data))
	if err != nil {
		return fmt.Errorf("failed to save user memory: %w", err)
	}
	return nil
}
