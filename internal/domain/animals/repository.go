package animals

import "context"

type Repository interface {
	// Create asigna ID y lo devuelve en el animal persistido.
	Create(ctx context.Context, a Animal) (Animal, error)
	Update(ctx context.Context, a Animal) error
	// Delete borra el animal; el storage aplica cascade sobre sus eventos
	// y SET NULL sobre sire/dam/partner que lo referencien.
	Delete(ctx context.Context, id int64) error

	GetByID(ctx context.Context, id int64) (Animal, error)
	GetMany(ctx context.Context, ids []int64) ([]Animal, error)

	// ListAll / ListByOwner ordenan por created_at DESC, id DESC.
	ListAll(ctx context.Context) ([]Animal, error)
	ListByOwner(ctx context.Context, ownerUserID int64) ([]Animal, error)
	ListChildren(ctx context.Context, parentID int64) ([]Animal, error)
}
