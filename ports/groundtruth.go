package ports

import (
	"context"

	"equivproof/domain/tensor"
)

// GroundTruth maps a module name to its named reference arrays.
type GroundTruth map[string]map[string]*tensor.Artifact

// GroundTruthPort materializes reference arrays exported from the source implementation.
type GroundTruthPort interface {
	Load(ctx context.Context) (GroundTruth, error)
}
