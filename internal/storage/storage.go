package storage

import (
	"context"

	"aprScope/internal/model"
)

// Storage defines a sink for archived APR records.
type Storage interface {
	Name() string
	PutAPRBatch(ctx context.Context, records []model.APRRecord) error
}
