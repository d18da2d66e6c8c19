// Package sessions persists conversation turns and enforces session
// ownership through the id prefix.
package sessions

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
	"github.com/code-sleuth/eduverse-go/pkg/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrNotOwned = errors.New("session does not belong to tenant")

const sessionRandomBytes = 6

// NewSessionID mints a session id carrying the owner prefix:
// {tenantID}_{12 hex chars}. Ownership checks are a prefix match on this
// id, so the tenant id must never contain an underscore-free ambiguity
// with another tenant's prefix.
func NewSessionID(tenantID string) (string, error) {
	buf := make([]byte, sessionRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return fmt.Sprintf("%s_%s", tenantID, hex.EncodeToString(buf)), nil
}

// OwnedBy reports whether the session id carries the tenant's prefix.
func OwnedBy(sessionID, tenantID string) bool {
	return strings.HasPrefix(sessionID, tenantID+"_")
}

// Store is the libsql-backed session message log.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewStore creates a session store on the given database.
func NewStore(database *sql.DB) *Store {
	return &Store{
		db:     database,
		logger: util.NewLogger(util.LogLevelFromEnv("SESSIONS_LOG_LEVEL")),
	}
}

// Append writes one turn to the session log.
func (s *Store) Append(ctx context.Context, sessionID, role, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_messages (id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), sessionID, role, content, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to append session message")
		return err
	}
	return nil
}

// History returns the session's turns in insertion order.
func (s *Store) History(ctx context.Context, sessionID string) ([]*models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, created_at FROM session_messages
		WHERE session_id = ? ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to load session history")
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		var msg models.Message
		var createdAt string
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &createdAt); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			msg.CreatedAt = t
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

// listPattern builds the LIKE pattern matching the tenant's session ids.
// Every LIKE metacharacter in the tenant id is escaped so one tenant can
// never wildcard into another's sessions.
func listPattern(tenantID string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(tenantID)
	return escaped + `\_%`
}

// ListSessions returns the distinct session ids owned by the tenant,
// newest activity first.
func (s *Store) ListSessions(ctx context.Context, tenantID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, MAX(created_at) AS last_active FROM session_messages
		WHERE session_id LIKE ? ESCAPE '\'
		GROUP BY session_id ORDER BY last_active DESC`,
		listPattern(tenantID))
	if err != nil {
		s.logger.Error().Err(err).Str("tenant_id", tenantID).Msg("Failed to list sessions")
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		var lastActive string
		if err := rows.Scan(&id, &lastActive); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// Clear deletes every turn for the session, reporting whether any rows
// existed. A false return means the session id was unknown (or already
// empty), which callers surface as not-found.
func (s *Store) Clear(ctx context.Context, sessionID string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM session_messages WHERE session_id = ?`, sessionID)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to clear session")
		return false, err
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}
