package storage

import "traceScope/internal/tree"

// Storage defines a sink for classified block trees.
type Storage interface {
	PutBlockTree(blockTree *tree.BlockTree) error
}
