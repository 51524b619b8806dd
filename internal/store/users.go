package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rcliao/agent-chat/internal/guard"
)

// GetUser returns the user record for uid, or ErrNotFound.
func (s *SQLiteStore) GetUser(ctx context.Context, uid string) (*guard.User, error) {
	var u guard.User
	var email, bans, reactivated sql.NullString
	var admin, banned int

	err := s.db.QueryRowContext(ctx,
		`SELECT uid, email, admin, banned, bans, reactivated_at FROM users WHERE uid = ?`, uid).
		Scan(&u.UID, &email, &admin, &banned, &bans, &reactivated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", uid, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	u.Email = email.String
	u.Admin = admin != 0
	u.Banned = banned != 0
	if bans.Valid {
		if err := json.Unmarshal([]byte(bans.String), &u.Bans); err != nil {
			return nil, fmt.Errorf("decode bans: %w", err)
		}
	}
	if reactivated.Valid {
		t, err := time.Parse(time.RFC3339Nano, reactivated.String)
		if err != nil {
			return nil, fmt.Errorf("decode reactivated_at: %w", err)
		}
		u.ReactivatedAt = &t
	}
	return &u, nil
}

// PutUser creates or replaces a user record.
func (s *SQLiteStore) PutUser(ctx context.Context, u guard.User) error {
	var bansJSON *string
	if len(u.Bans) > 0 {
		b, err := json.Marshal(u.Bans)
		if err != nil {
			return fmt.Errorf("encode bans: %w", err)
		}
		s := string(b)
		bansJSON = &s
	}
	var reactivated *string
	if u.ReactivatedAt != nil {
		r := u.ReactivatedAt.UTC().Format(time.RFC3339Nano)
		reactivated = &r
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (uid, email, admin, banned, bans, reactivated_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(uid) DO UPDATE SET
		   email = excluded.email, admin = excluded.admin, banned = excluded.banned,
		   bans = excluded.bans, reactivated_at = excluded.reactivated_at, updated_at = excluded.updated_at`,
		u.UID, u.Email, boolInt(u.Admin), boolInt(u.Banned), bansJSON, reactivated,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// UpdateUser loads uid (or starts a blank record), applies fn and saves it.
func (s *SQLiteStore) UpdateUser(ctx context.Context, uid string, fn func(*guard.User)) (*guard.User, error) {
	u, err := s.GetUser(ctx, uid)
	if errors.Is(err, ErrNotFound) {
		u = &guard.User{UID: uid}
	} else if err != nil {
		return nil, err
	}
	fn(u)
	if err := s.PutUser(ctx, *u); err != nil {
		return nil, err
	}
	return u, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
