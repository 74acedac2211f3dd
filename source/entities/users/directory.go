package users

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"sync"

	"worklogz/source/database"
	"worklogz/source/schemas"
)

// Directory lists assignable team members and resolves user references.
type Directory interface {
	Lookup(ctx context.Context, ids []string) (map[string]schemas.User, error)
	ListMembers(ctx context.Context) ([]schemas.User, error)
}

// MySQLDirectory reads the legacy users table.
type MySQLDirectory struct {
	db *sql.DB
}

func NewMySQLDirectory(db *sql.DB) *MySQLDirectory {
	return &MySQLDirectory{db: db}
}

const selectUsers = "SELECT id, name, COALESCE(email, ''), COALESCE(designation, '') FROM users"

func (d *MySQLDirectory) Lookup(ctx context.Context, ids []string) (map[string]schemas.User, error) {
	found := map[string]schemas.User{}
	if len(ids) == 0 {
		return found, nil
	}

	query, args := lookupQuery(ids)

	ctx, cancel := context.WithTimeout(ctx, database.MYSQL_TIMEOUT)
	defer cancel()

	users, err := d.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		found[user.ID] = user
	}
	return found, nil
}

func (d *MySQLDirectory) ListMembers(ctx context.Context) ([]schemas.User, error) {
	ctx, cancel := context.WithTimeout(ctx, database.MYSQL_TIMEOUT)
	defer cancel()

	return d.query(ctx, selectUsers+" WHERE deleted_at IS NULL ORDER BY name")
}

func (d *MySQLDirectory) query(ctx context.Context, query string, args ...any) ([]schemas.User, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users from MySQL: %w", err)
	}
	defer rows.Close()

	users := []schemas.User{}
	for rows.Next() {
		user := schemas.User{}
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Designation); err != nil {
			return nil, fmt.Errorf("failed to scan user from MySQL: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read users from MySQL: %w", err)
	}
	return users, nil
}

func lookupQuery(ids []string) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return selectUsers + " WHERE id IN (" + strings.Join(placeholders, ", ") + ")", args
}

// MemoryDirectory remembers every user it has seen. It serves the memory
// storage mode, where authenticated users are recorded as they arrive.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]schemas.User
}

func NewMemoryDirectory(users ...schemas.User) *MemoryDirectory {
	d := &MemoryDirectory{users: map[string]schemas.User{}}
	for _, user := range users {
		d.Remember(user)
	}
	return d
}

func (d *MemoryDirectory) Remember(user schemas.User) {
	if user.ID == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[user.ID] = user
}

func (d *MemoryDirectory) Lookup(ctx context.Context, ids []string) (map[string]schemas.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	found := map[string]schemas.User{}
	for _, id := range ids {
		if user, ok := d.users[id]; ok {
			found[id] = user
		}
	}
	return found, nil
}

func (d *MemoryDirectory) ListMembers(ctx context.Context) ([]schemas.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	members := make([]schemas.User, 0, len(d.users))
	for _, user := range d.users {
		members = append(members, user)
	}
	slices.SortFunc(members, func(a, b schemas.User) int {
		return strings.Compare(a.Name, b.Name)
	})
	return members, nil
}
