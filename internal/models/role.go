package models

// Role is static reference data. Permission levels totally order roles:
// a caller satisfies a route requirement when its level is >= the
// required level.
type Role struct {
	ID          string
	Name        string
	Level       int
	Description string
}

// Seeded role names. The reference table is the source of truth for
// levels; these constants only name the rows the migrations create.
const (
	RoleResident = "resident"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)
