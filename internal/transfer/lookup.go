package transfer

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mrlokans/collections/internal/database/collections"
	"github.com/mrlokans/collections/internal/entities"
)

// CollectionLookup resolves collections by id or by name.
type CollectionLookup interface {
	GetCollectionByID(id uuid.UUID) (*entities.Collection, error)
	FindCollectionByName(name string) (*entities.Collection, error)
}

// resolveCollection maps the repository's not-found sentinel onto ErrNotFound.
func (e *Engine) resolveCollection(id uuid.UUID) (*entities.Collection, error) {
	collection, err := e.collections.GetCollectionByID(id)
	if errors.Is(err, collections.ErrNotFound) || (err == nil && collection == nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get collection %s: %w", id, err)
	}
	return collection, nil
}

// blockingCollectionIDs returns the ids of collections whose members must not
// be added to other collections. A reserved collection that does not exist
// contributes nothing.
func (e *Engine) blockingCollectionIDs() ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, role := range blockingRoles() {
		name := e.roles.nameFor(role)
		if name == "" {
			continue
		}
		collection, err := e.collections.FindCollectionByName(name)
		if err != nil {
			return nil, fmt.Errorf("find %s collection: %w", role, err)
		}
		if collection != nil {
			ids = append(ids, collection.ID)
		}
	}
	return ids, nil
}
