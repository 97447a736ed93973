package repositories

import (
	"context"
	"database/sql"
	"time"

	"parampara-foods/models"
)

const userColumns = `u.id, u.email, u.phone_number, u.full_name, u.address, u.password_hash, u.role_id,
	r.name, u.auth_provider, u.google_id, u.google_picture, u.created_at, u.last_login_at`

const userFrom = `FROM users u JOIN roles r ON r.role_id = u.role_id`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) WithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{db: tx}
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PhoneNumber, &u.FullName, &u.Address, &u.PasswordHash, &u.RoleID,
		&u.RoleName, &u.AuthProvider, &u.GoogleID, &u.GooglePicture, &u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` `+userFrom+` WHERE `+where, arg))
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `u.id = ?`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `u.email = ?`, email)
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.getOne(ctx, `u.google_id = ?`, googleID)
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.getOne(ctx, `u.phone_number = ?`, phone)
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email).Scan(&exists)
	return exists, err
}

func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, id).Scan(&exists)
	return exists, err
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, phone_number, full_name, address, password_hash, role_id,
			auth_provider, google_id, google_picture, created_at, last_login_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PhoneNumber, u.FullName, u.Address, u.PasswordHash, u.RoleID,
		u.AuthProvider, u.GoogleID, u.GooglePicture, u.CreatedAt, u.LastLoginAt)
	return err
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, at, id)
	return err
}

// LinkGoogle attaches a Google identity to an existing account.
func (r *UserRepository) LinkGoogle(ctx context.Context, id, googleID string, picture *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET google_id = ?, google_picture = ? WHERE id = ?`,
		googleID, picture, id)
	return err
}

func (r *UserRepository) UpdateRole(ctx context.Context, id string, roleID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET role_id = ? WHERE id = ?`, roleID, id)
	return err
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return inUseIfReferenced(err)
	}
	return affectedOne(res)
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` `+userFrom+` ORDER BY u.created_at DESC`)
}

// Search matches q against email and full name.
func (r *UserRepository) Search(ctx context.Context, q string, limit int) ([]models.User, error) {
	pattern := likePattern(q)
	return r.queryUsers(ctx, `SELECT `+userColumns+` `+userFrom+`
		WHERE u.email LIKE ? OR u.full_name LIKE ?
		ORDER BY u.email ASC
		LIMIT ?`, pattern, pattern, limit)
}

func (r *UserRepository) EmailSuggestions(ctx context.Context, q string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT email FROM users
		WHERE email IS NOT NULL AND email LIKE ?
		ORDER BY email ASC
		LIMIT ?`, likePattern(q), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emails := []string{}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}
