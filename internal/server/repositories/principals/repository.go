// Package principals declares the server-side repository contract for
// accounts of every role.
package principals

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository abstracts persistence of principals.
//
// Lookups return common.ErrorNotFound when no row matches. Create returns
// common.ErrDuplicateIdentifier when the (role, email) pair is taken by a
// non-deleted principal.
type Repository interface {
	// Create inserts p and fills in ID and timestamps.
	Create(ctx context.Context, p *models.Principal) (*models.Principal, error)
	// GetByEmail finds a non-deleted principal of role by normalized email.
	GetByEmail(ctx context.Context, role, email string) (*models.Principal, error)
	// GetByID finds a principal by id, deleted ones included.
	GetByID(ctx context.Context, id string) (*models.Principal, error)
	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// UpdateStatus changes the status; StatusDeleted also stamps deleted_at.
	UpdateStatus(ctx context.Context, id string, status models.PrincipalStatus) error
}
