package syncer

import "github.com/google/uuid"

// IDProvider issues identifiers for newly created records. Ids must be
// globally unique across replicas since records merge by id on the
// remote store.
type IDProvider interface {
	NewID() (string, error)
}

type uuidProvider struct{}

// NewUUIDProvider constructs an IDProvider that issues UUIDv7
// identifiers. The embedded timestamp keeps ids roughly insertion
// ordered, which keeps the primary key index append-friendly.
func NewUUIDProvider() IDProvider {
	return &uuidProvider{}
}

func (p *uuidProvider) NewID() (string, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return value.String(), nil
}
