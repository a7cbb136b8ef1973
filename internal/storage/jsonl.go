package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"traceScope/internal/model"
	"traceScope/internal/tree"
)

// TxRecord is the JSONL row for one classified transaction: the tree
// flattened to its live nodes in pre-order.
type TxRecord struct {
	BlockNumber uint64           `json:"block_number"`
	TxHash      string           `json:"tx_hash"`
	TxIndex     uint64           `json:"tx_index"`
	GasDetails  model.GasDetails `json:"gas_details"`
	Nodes       []TxRecordNode   `json:"nodes"`
}

// TxRecordNode is one live tree node.
type TxRecordNode struct {
	TraceIndex uint64          `json:"trace_index"`
	Kind       string          `json:"kind"`
	Action     json.RawMessage `json:"action"`
}

// JsonlStorage writes classified transactions to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutBlockTree appends one line per transaction tree.
func (s *JsonlStorage) PutBlockTree(blockTree *tree.BlockTree) error {
	if blockTree == nil || len(blockTree.Txs) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, tx := range blockTree.Txs {
		record, err := buildTxRecord(blockTree.Header.Number, tx)
		if err != nil {
			return err
		}
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal tx record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write tx record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}

func buildTxRecord(blockNumber uint64, tx *tree.TxTree) (TxRecord, error) {
	record := TxRecord{
		BlockNumber: blockNumber,
		TxHash:      tx.TxHash.Hex(),
		TxIndex:     tx.TxIndex,
		GasDetails:  tx.GasDetails,
	}

	var marshalErr error
	tx.PreOrder(func(n *tree.Node) bool {
		action, err := json.Marshal(n.Action)
		if err != nil {
			marshalErr = fmt.Errorf("marshal action at %d: %w", n.Action.TraceIdx(), err)
			return false
		}
		record.Nodes = append(record.Nodes, TxRecordNode{
			TraceIndex: n.Action.TraceIdx(),
			Kind:       n.Action.Kind().String(),
			Action:     action,
		})
		return true
	})

	return record, marshalErr
}
