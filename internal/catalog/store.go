package catalog

import "context"

// Store is the durable id -> Product mapping behind the HTTP surface.
//
// Faults raised by the underlying storage are returned as *StoreError.
// Update never creates a record: an absent id yields ErrNotFound. Delete of
// an absent id is a no-op.
type Store interface {
	Ping(ctx context.Context) error
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, bool, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, id int64, p Product, fields ...Field) error
	Delete(ctx context.Context, id int64) error
}

// checkCreate is the precondition shared by every backend's Create.
func checkCreate(p Product) error {
	return Validate(p)
}
