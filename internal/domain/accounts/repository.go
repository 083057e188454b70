package accounts

import "context"

type Repository interface {
	// GetByEmail devuelve ErrNotFound si no existe.
	GetByEmail(ctx context.Context, email string) (User, error)

	// Upsert crea o reemplaza el hash de la credencial.
	Upsert(ctx context.Context, u User) error
}
