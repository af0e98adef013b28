package construction

import (
	"context"
	"sync"

	apperrors "github.com/haidi-ustc/stk/pkg/errors"
	"github.com/haidi-ustc/stk/pkg/types/chem"
)

// Repository is the persistence contract for constructed molecule
// documents. Implementations map the document view onto their store;
// the construction core never talks to storage directly.
type Repository interface {
	Save(ctx context.Context, doc chem.ConstructedMoleculeDocument) error
	Load(ctx context.Context, id string) (chem.ConstructedMoleculeDocument, error)
}

// InMemoryRepository is a Repository backed by a process-local map.
// Useful for tests and for runs that do not need durable storage.
type InMemoryRepository struct {
	mu   sync.RWMutex
	docs map[string]chem.ConstructedMoleculeDocument
}

// NewInMemoryRepository returns an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{docs: make(map[string]chem.ConstructedMoleculeDocument)}
}

func (r *InMemoryRepository) Save(ctx context.Context, doc chem.ConstructedMoleculeDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
	return nil
}

func (r *InMemoryRepository) Load(ctx context.Context, id string) (chem.ConstructedMoleculeDocument, error) {
	if err := ctx.Err(); err != nil {
		return chem.ConstructedMoleculeDocument{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok {
		return chem.ConstructedMoleculeDocument{}, apperrors.New(
			apperrors.ErrCodeMoleculeNotFound,
			"constructed molecule not found",
		).WithDetail(id)
	}
	return doc, nil
}
