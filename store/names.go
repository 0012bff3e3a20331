// File: store/names.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ClientNames persists the player names of one client. It implements
// game.NameStore.
type ClientNames struct {
	db       *DB
	clientID string
}

// Names returns the name store scoped to clientID.
func (s *DB) Names(clientID string) *ClientNames {
	return &ClientNames{db: s, clientID: clientID}
}

// GetName returns the stored value, or "" when nothing was stored.
func (n *ClientNames) GetName(ctx context.Context, key string) (string, error) {
	var value string
	err := n.db.db.QueryRowContext(ctx,
		`SELECT value FROM player_names WHERE client_id = ? AND name_key = ?`,
		n.clientID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load name %s: %w", key, err)
	}
	return value, nil
}

// SetName stores value under key, replacing any previous value.
func (n *ClientNames) SetName(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("empty name key")
	}
	_, err := n.db.db.ExecContext(ctx,
		`INSERT INTO player_names (client_id, name_key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(client_id, name_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		n.clientID, key, value, n.db.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store name %s: %w", key, err)
	}
	n.db.log.Tracef("Stored %s for client %s", key, n.clientID)
	return nil
}
