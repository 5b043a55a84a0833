package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/shelfwise/shelfwise/pkg/catalog"
)

// RoleStore implements storage.RoleRepository over PostgreSQL. Role rows
// carry an optional permission-flag map alongside the static hierarchy.
type RoleStore struct {
	db *sql.DB
}

// NewRoleStore creates a role repository.
func NewRoleStore(db *sql.DB) *RoleStore {
	return &RoleStore{db: db}
}

func scanRole(scanner interface{ Scan(dest ...interface{}) error }) (*catalog.RoleRecord, error) {
	var r catalog.RoleRecord
	var permissionsJSON []byte
	if err := scanner.Scan(&r.ID, &r.Name, &permissionsJSON); err != nil {
		return nil, err
	}
	if len(permissionsJSON) > 0 {
		if err := json.Unmarshal(permissionsJSON, &r.Permissions); err != nil {
			return nil, fmt.Errorf("decoding role permissions: %w", err)
		}
	}
	if r.Permissions == nil {
		r.Permissions = map[string]bool{}
	}
	return &r, nil
}

func (s *RoleStore) GetByID(ctx context.Context, id uuid.UUID) (*catalog.RoleRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, permissions FROM roles WHERE id = $1`, id)
	r, err := scanRole(row)
	if err == sql.ErrNoRows {
		return nil, catalog.NotFoundf("role %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying role %s: %w", id, err)
	}
	return r, nil
}

func (s *RoleStore) List(ctx context.Context) ([]catalog.RoleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, permissions FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	defer rows.Close()

	var roles []catalog.RoleRecord
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning role: %w", err)
		}
		roles = append(roles, *r)
	}
	return roles, rows.Err()
}

func (s *RoleStore) Create(ctx context.Context, role *catalog.RoleRecord) error {
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	if role.Permissions == nil {
		role.Permissions = map[string]bool{}
	}
	permissions, err := json.Marshal(role.Permissions)
	if err != nil {
		return fmt.Errorf("encoding role permissions: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO roles (id, name, permissions) VALUES ($1, $2, $3)`,
		role.ID, role.Name, permissions)
	if isUniqueViolation(err) {
		return catalog.Conflictf("role %q already exists", role.Name)
	}
	if err != nil {
		return fmt.Errorf("inserting role: %w", err)
	}
	return nil
}

func (s *RoleStore) Update(ctx context.Context, id uuid.UUID, permissions map[string]bool) (*catalog.RoleRecord, error) {
	if permissions == nil {
		permissions = map[string]bool{}
	}
	encoded, err := json.Marshal(permissions)
	if err != nil {
		return nil, fmt.Errorf("encoding role permissions: %w", err)
	}
	row := s.db.QueryRowContext(ctx,
		`UPDATE roles SET permissions = $1 WHERE id = $2 RETURNING id, name, permissions`,
		encoded, id)
	r, err := scanRole(row)
	if err == sql.ErrNoRows {
		return nil, catalog.NotFoundf("role %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("updating role %s: %w", id, err)
	}
	return r, nil
}

func (s *RoleStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting role %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting role %s: %w", id, err)
	}
	return n > 0, nil
}
