package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edudiario/escola-api/internal/models"
)

// ManagerRepository manages persistence for management-staff profiles and
// their backing identities.
type ManagerRepository struct {
	db *sqlx.DB
}

// NewManagerRepository constructs a ManagerRepository.
func NewManagerRepository(db *sqlx.DB) *ManagerRepository {
	return &ManagerRepository{db: db}
}

const managerSelect = `SELECT m.id, m.user_id, m.full_name, m.position, u.email, m.created_at, m.updated_at
	FROM managers m JOIN users u ON u.id = m.user_id`

// List returns managers matching the name filter along with total count.
func (r *ManagerRepository) List(ctx context.Context, filter models.NameFilter) ([]models.Manager, int, error) {
	base := "FROM managers m JOIN users u ON u.id = m.user_id WHERE 1=1"
	var args []interface{}

	if filter.Query != "" {
		base += fmt.Sprintf(" AND m.full_name ILIKE $%d", len(args)+1)
		args = append(args, "%"+strings.TrimSpace(filter.Query)+"%")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT m.id, m.user_id, m.full_name, m.position, u.email, m.created_at, m.updated_at %s ORDER BY m.full_name ASC LIMIT %d OFFSET %d", base, size, offset)
	var managers []models.Manager
	if err := r.db.SelectContext(ctx, &managers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list managers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count managers: %w", err)
	}

	return managers, total, nil
}

// FindByID fetches a manager by ID.
func (r *ManagerRepository) FindByID(ctx context.Context, id string) (*models.Manager, error) {
	query := managerSelect + ` WHERE m.id = $1`
	var manager models.Manager
	if err := r.db.GetContext(ctx, &manager, query, id); err != nil {
		return nil, err
	}
	return &manager, nil
}

// FindByUserID fetches the manager profile owned by an identity.
func (r *ManagerRepository) FindByUserID(ctx context.Context, userID string) (*models.Manager, error) {
	query := managerSelect + ` WHERE m.user_id = $1`
	var manager models.Manager
	if err := r.db.GetContext(ctx, &manager, query, userID); err != nil {
		return nil, err
	}
	return &manager, nil
}

// CreateWithUser inserts the identity and the manager profile atomically.
func (r *ManagerRepository) CreateWithUser(ctx context.Context, user *models.User, manager *models.Manager) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create manager: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := insertUserTx(ctx, tx, user); err != nil {
		return err
	}

	if manager.ID == "" {
		manager.ID = uuid.NewString()
	}
	manager.UserID = user.ID
	now := time.Now().UTC()
	manager.CreatedAt = now
	manager.UpdatedAt = now

	const query = `INSERT INTO managers (id, user_id, full_name, position, created_at, updated_at)
		VALUES (:id, :user_id, :full_name, :position, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, manager); err != nil {
		return translateDBError(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create manager: %w", err)
	}
	manager.Email = user.Email
	return nil
}

// UpdateWithUser modifies the profile and keeps the identity in sync.
func (r *ManagerRepository) UpdateWithUser(ctx context.Context, manager *models.Manager, passwordHash string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update manager: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	manager.UpdatedAt = time.Now().UTC()
	const query = `UPDATE managers SET full_name = :full_name, position = :position, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, manager); err != nil {
		return translateDBError(err)
	}

	if err := updateUserTx(ctx, tx, manager.UserID, manager.Email, passwordHash); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update manager: %w", err)
	}
	return nil
}

// DeleteWithUser removes the profile and its backing identity atomically.
func (r *ManagerRepository) DeleteWithUser(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete manager: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var userID string
	if err := tx.GetContext(ctx, &userID, `SELECT user_id FROM managers WHERE id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM managers WHERE id = $1`, id); err != nil {
		return translateDBError(err)
	}
	if err := deleteUserTx(ctx, tx, userID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete manager: %w", err)
	}
	return nil
}
