package repositories

import (
	"context"
	"time"

	"parampara-foods/models"
)

const roleSelect = `
	SELECT r.role_id, r.name, r.description, r.is_active, r.created_at, r.updated_at,
		(SELECT COUNT(*) FROM users u WHERE u.role_id = r.role_id)
	FROM roles r`

type RoleRepository struct {
	db DBTX
}

func NewRoleRepository(db DBTX) *RoleRepository {
	return &RoleRepository{db: db}
}

func scanRole(row rowScanner) (*models.Role, error) {
	var role models.Role
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.IsActive, &role.CreatedAt, &role.UpdatedAt, &role.UserCount)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepository) list(ctx context.Context, query string) ([]models.Role, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []models.Role{}
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}
	return roles, rows.Err()
}

func (r *RoleRepository) List(ctx context.Context) ([]models.Role, error) {
	return r.list(ctx, roleSelect+` ORDER BY r.name ASC`)
}

func (r *RoleRepository) ListActive(ctx context.Context) ([]models.Role, error) {
	return r.list(ctx, roleSelect+` WHERE r.is_active = TRUE ORDER BY r.name ASC`)
}

func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*models.Role, error) {
	role, err := scanRole(r.db.QueryRowContext(ctx, roleSelect+` WHERE r.role_id = ?`, id))
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return role, nil
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*models.Role, error) {
	role, err := scanRole(r.db.QueryRowContext(ctx, roleSelect+` WHERE r.name = ?`, name))
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return role, nil
}

func (r *RoleRepository) Create(ctx context.Context, role *models.Role) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO roles (name, description, is_active, created_at) VALUES (?, ?, ?, ?)`,
		role.Name, role.Description, role.IsActive, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *RoleRepository) Update(ctx context.Context, role *models.Role) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE roles SET name = ?, description = ?, is_active = ?, updated_at = ? WHERE role_id = ?`,
		role.Name, role.Description, role.IsActive, time.Now().UTC(), role.ID)
	return err
}

func (r *RoleRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE role_id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}
