package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ibeckermayer/lisync/internal/types"
)

// AddComment stores a comment unless one with the same commenter and text is
// already stored for the post. Comments are never updated. It reports
// whether a row was inserted.
func (c conn) AddComment(ctx context.Context, postID string, cm types.Comment) (bool, error) {
	var id string
	err := c.queryRow(ctx, `
		SELECT id FROM post_comments
		WHERE post_id = ? AND commenter_name = ? AND comment_text = ?
	`, postID, cm.CommenterName, cm.Text).Scan(&id)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	_, err = c.exec(ctx, `
		INSERT INTO post_comments (id, post_id, commenter_name, commenter_headline, comment_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, newID(), postID, cm.CommenterName, cm.CommenterHeadline, cm.Text, c.now())
	if err != nil {
		return false, fmt.Errorf("inserting comment on %s: %w", postID, err)
	}
	return true, nil
}

// Comments returns the stored comments of a post in insertion order
func (c conn) Comments(ctx context.Context, postID string) ([]types.Comment, error) {
	rows, err := c.query(ctx, `
		SELECT commenter_name, COALESCE(commenter_headline, ''), comment_text
		FROM post_comments WHERE post_id = ?
		ORDER BY created_at
	`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []types.Comment
	for rows.Next() {
		var cm types.Comment
		if err := rows.Scan(&cm.CommenterName, &cm.CommenterHeadline, &cm.Text); err != nil {
			return nil, err
		}
		comments = append(comments, cm)
	}
	return comments, rows.Err()
}
