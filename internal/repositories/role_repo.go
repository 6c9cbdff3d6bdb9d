package repositories

import (
	"context"
	"fmt"

	"github.com/adiwijaya/rukun/internal/database"
	"github.com/adiwijaya/rukun/internal/models"
)

// RoleRepository reads the static role reference table. Rows are seeded
// by migration and never written from this subsystem.
type RoleRepository struct {
	db *database.DB
}

func NewRoleRepository(db *database.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*models.Role, error) {
	query := `SELECT id, name, level, description FROM roles WHERE name = $1`

	var role models.Role
	err := r.db.Pool.QueryRow(ctx, query, name).Scan(&role.ID, &role.Name, &role.Level, &role.Description)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &role, nil
}

func (r *RoleRepository) List(ctx context.Context) ([]*models.Role, error) {
	query := `SELECT id, name, level, description FROM roles ORDER BY level ASC`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer rows.Close()

	roles := make([]*models.Role, 0)
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Level, &role.Description); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, &role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return roles, nil
}
