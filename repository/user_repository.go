package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"userManagement/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Search returns the users whose username, email or decimal id equals value, ordered by id.
// value is always bound as a parameter. ErrNotFound is returned when nothing matches.
func (r *UserRepository) Search(ctx context.Context, value string) ([]models.User, error) {
	const op = "search"
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, connErr(op, err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx,
		`SELECT id, username, email, password FROM users WHERE username = ? OR email = ? OR id = ? ORDER BY id`,
		value, value, idParam(value))
	if err != nil {
		return nil, stmtErr(op, err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Password); err != nil {
			return nil, stmtErr(op, err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, stmtErr(op, err)
	}
	if len(out) == 0 {
		return nil, notFound(op)
	}
	return out, nil
}

// Create inserts a new user and returns it with the database-assigned ID.
func (r *UserRepository) Create(ctx context.Context, username, email, password string) (*models.User, error) {
	const op = "create"
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, connErr(op, err)
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx, `INSERT INTO users (username, email, password) VALUES (?, ?, ?)`, username, email, password)
	if err != nil {
		return nil, stmtErr(op, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, stmtErr(op, fmt.Errorf("last insert id: %w", err))
	}
	return &models.User{ID: id, Username: username, Email: email, Password: password}, nil
}

// Update replaces username, email and password of the row with u.ID and returns u.
// Matching no row is not an error.
func (r *UserRepository) Update(ctx context.Context, u *models.User) (*models.User, error) {
	const op = "update"
	if u == nil {
		return nil, stmtErr(op, fmt.Errorf("user is nil"))
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, connErr(op, err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `UPDATE users SET username = ?, email = ?, password = ? WHERE id = ?`,
		u.Username, u.Email, u.Password, u.ID); err != nil {
		return nil, stmtErr(op, err)
	}
	return u, nil
}

// Delete removes the row with the given id. Deleting a missing row is not an error.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	const op = "delete"
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return connErr(op, err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return stmtErr(op, err)
	}
	return nil
}

// idParam binds the id comparison only for canonical decimal input ("7", not "007" or "7 ").
// Anything else binds NULL, which never compares equal.
func idParam(value string) any {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || strconv.FormatInt(id, 10) != value {
		return nil
	}
	return id
}
