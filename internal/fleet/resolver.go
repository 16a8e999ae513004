package fleet

import (
	"rentdesk/internal"
	"rentdesk/internal/storage"
)

// Resolver looks up fleet vehicles for the ingestion pipeline. Exact
// plate match first, then a partial match against the descriptive name;
// the first hit wins, a miss is not an error.
type Resolver struct {
	db *storage.DB
}

func NewResolver(db *storage.DB) *Resolver {
	return &Resolver{db: db}
}

func (r *Resolver) Resolve(code string) (*internal.Vehicle, error) {
	if code == "" {
		return nil, nil
	}
	vehicle, err := r.db.FindVehicleByPlate(code)
	if err != nil {
		return nil, err
	}
	if vehicle != nil {
		return vehicle, nil
	}
	return r.db.FindVehicleByNameLike(code)
}
