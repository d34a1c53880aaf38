package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

var _ Repository = (*PostgresRepository)(nil)

const (
	createUsersTableQuery = `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			firstname TEXT NOT NULL,
			lastname TEXT NOT NULL,
			age INT NOT NULL CHECK (age > 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	listUsersQuery = `
		SELECT id, firstname, lastname, age
		FROM users
		ORDER BY created_at, id
	`
	getUserByIDQuery = `
		SELECT id, firstname, lastname, age
		FROM users
		WHERE id = $1
	`
	insertUserQuery = `
		INSERT INTO users (id, firstname, lastname, age)
		VALUES ($1, $2, $3, $4)
	`
	// NULL parameters keep the stored value.
	updateUserQuery = `
		UPDATE users
		SET firstname = COALESCE($2, firstname),
			lastname = COALESCE($3, lastname),
			age = COALESCE($4, age)
		WHERE id = $1
	`
	deleteUserQuery = `DELETE FROM users WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the users table when it does not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTableQuery); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, listUsersQuery)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (User, error) {
	row := r.db.QueryRowContext(ctx, getUserByIDQuery, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("get user %s: %w", id, err)
	}

	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user User) (User, error) {
	if _, err := r.db.ExecContext(ctx, insertUserQuery, user.ID, user.Firstname, user.Lastname, user.Age); err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch Patch) (User, error) {
	result, err := r.db.ExecContext(
		ctx,
		updateUserQuery,
		id,
		nullString(patch.Firstname),
		nullString(patch.Lastname),
		nullInt(patch.Age),
	)
	if err != nil {
		return User{}, fmt.Errorf("update user %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return User{}, err
	}
	if affected == 0 {
		return User{}, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, deleteUserQuery, id)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func scanUser(scanner rowScanner) (User, error) {
	user := User{}
	if err := scanner.Scan(&user.ID, &user.Firstname, &user.Lastname, &user.Age); err != nil {
		return User{}, err
	}
	return user, nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
