package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// FirstUserID returns the id of the first user row. The dashboard creates
// the user at sign-up, so a single-tenant install has exactly one.
func (c conn) FirstUserID(ctx context.Context) (string, error) {
	var id string
	err := c.queryRow(ctx, `SELECT id FROM users LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoUser
	}
	return id, err
}

// UserIDByEmail returns the id of the user with the given email
func (c conn) UserIDByEmail(ctx context.Context, email string) (string, error) {
	var id string
	err := c.queryRow(ctx, `SELECT id FROM users WHERE email = ?`, email).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w with email %s", ErrNoUser, email)
	}
	return id, err
}

// ResolveUser picks the user the scraped data belongs to: the one with the
// given email, or the first user when email is empty.
func (c conn) ResolveUser(ctx context.Context, email string) (string, error) {
	if email == "" {
		return c.FirstUserID(ctx)
	}
	return c.UserIDByEmail(ctx, email)
}

// CreateUser inserts a user and returns its id
func (c conn) CreateUser(ctx context.Context, email, name string) (string, error) {
	id := newID()
	_, err := c.exec(ctx, `
		INSERT INTO users (id, email, name, created_at)
		VALUES (?, ?, ?, ?)
	`, id, email, name, c.now())
	if err != nil {
		return "", fmt.Errorf("creating user %s: %w", email, err)
	}
	return id, nil
}
