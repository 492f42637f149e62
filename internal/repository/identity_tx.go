package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edudiario/escola-api/internal/models"
)

// Role profiles own exactly one identity each, so profile create/update/delete
// always touches the users table inside the same transaction.

func insertUserTx(ctx context.Context, tx *sqlx.Tx, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	const query = `INSERT INTO users (id, email, password_hash, is_admin, active, created_at, updated_at)
		VALUES (:id, :email, :password_hash, :is_admin, :active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, user); err != nil {
		return translateDBError(err)
	}
	return nil
}

// updateUserTx syncs the identity's email and, when non-empty, its password
// hash. Username and email are one column here, so they stay in sync by
// construction. A password change revokes every active session of the user.
func updateUserTx(ctx context.Context, tx *sqlx.Tx, userID, email, passwordHash string) error {
	now := time.Now().UTC()
	if passwordHash != "" {
		const query = `UPDATE users SET email = $2, password_hash = $3, updated_at = $4 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, query, userID, email, passwordHash, now); err != nil {
			return translateDBError(err)
		}
		const revoke = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE user_id = $1 AND revoked = FALSE`
		if _, err := tx.ExecContext(ctx, revoke, userID, now); err != nil {
			return fmt.Errorf("revoke sessions on password change: %w", err)
		}
		return nil
	}
	const query = `UPDATE users SET email = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, userID, email, now); err != nil {
		return translateDBError(err)
	}
	return nil
}

func deleteUserTx(ctx context.Context, tx *sqlx.Tx, userID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete refresh tokens: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete password reset tokens: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return translateDBError(err)
	}
	return nil
}
