package files

import "context"

// Repository es genérico sobre las categorías: el Schema dice tabla y campos.
// Implementaciones: adapters/storage/postgres y adapters/storage/memory.
type Repository interface {
	List(ctx context.Context, s Schema) ([]File, error)
	GetByID(ctx context.Context, s Schema, id string) (File, error)

	// Create devuelve ErrConflict si el id ya existe.
	Create(ctx context.Context, s Schema, f File) error

	// Update toca sólo los campos presentes en in y devuelve el registro releído.
	// ErrNotFound si el id no existe.
	Update(ctx context.Context, s Schema, id string, in Input) (File, error)

	// Delete informa si efectivamente borró una fila; nunca falla por "no existe".
	Delete(ctx context.Context, s Schema, id string) (bool, error)

	// Stats cuenta todas las categorías contra un mismo snapshot. Si una falla, falla todo.
	Stats(ctx context.Context, schemas []Schema, w StatsWindow) (map[Category]CategoryStats, error)
}
