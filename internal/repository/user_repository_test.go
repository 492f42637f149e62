package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edudiario/escola-api/internal/models"
)

func TestUserRepositoryFindByEmailIsCaseInsensitive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "is_admin", "active", "last_login", "created_at", "updated_at"}).
		AddRow("u1", "ana@escola.br", "hash", false, true, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, is_admin, active, last_login, created_at, updated_at FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("ANA@Escola.BR").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "ANA@Escola.BR")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRevokeUserRefreshTokens(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE user_id = $1 AND revoked = FALSE")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.RevokeUserRefreshTokens(context.Background(), "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryPasswordResetTokenLifecycle(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO password_reset_tokens").
		WillReturnResult(sqlmock.NewResult(1, 1))

	token := &models.PasswordResetToken{UserID: "u1", TokenHash: "digest", ExpiresAt: time.Now().Add(time.Hour), CreatedAt: time.Now()}
	require.NoError(t, repo.CreatePasswordResetToken(context.Background(), token))
	assert.NotEmpty(t, token.ID)

	rows := sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "used", "created_at"}).
		AddRow(token.ID, "u1", "digest", token.ExpiresAt, false, token.CreatedAt)
	mock.ExpectQuery(regexp.QuoteMeta("FROM password_reset_tokens WHERE token_hash = $1 LIMIT 1")).
		WithArgs("digest").
		WillReturnRows(rows)

	stored, err := repo.FindPasswordResetToken(context.Background(), "digest")
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.UserID)
	assert.False(t, stored.Used)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE password_reset_tokens SET used = TRUE WHERE id = $1")).
		WithArgs(token.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkPasswordResetTokenUsed(context.Background(), token.ID))

	assert.NoError(t, mock.ExpectationsWereMet())
}
