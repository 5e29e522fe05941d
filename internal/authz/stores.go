package authz

import (
	agencyrepo "handicraft-marketplace/backend/internal/agency/repository"
	assignmentrepo "handicraft-marketplace/backend/internal/assignment/repository"
	"handicraft-marketplace/backend/internal/db"
	productrepo "handicraft-marketplace/backend/internal/product/repository"
	profilerepo "handicraft-marketplace/backend/internal/profile/repository"
	rolerepo "handicraft-marketplace/backend/internal/role/repository"
	supportrepo "handicraft-marketplace/backend/internal/support/repository"
)

// PostgresStores wires every read model to the Postgres repositories over conn.
func PostgresStores(conn db.DBTX) Stores {
	profiles := profilerepo.NewPostgresRepository(conn)
	return Stores{
		Roles:       assignmentrepo.NewPostgresRepository(conn),
		Permissions: rolerepo.NewPostgresRepository(conn),
		Products:    productrepo.NewPostgresRepository(conn),
		Profiles:    profiles,
		Relations:   agencyrepo.NewPostgresRepository(conn),
		Support:     supportrepo.NewPostgresRepository(conn),
	}
}
