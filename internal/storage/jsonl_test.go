package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"traceScope/internal/model"
	"traceScope/internal/tree"
)

func TestPutBlockTreeWritesOneLinePerTx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "trees.jsonl")
	sink := NewJsonlStorage(path)

	txTree := tree.NewTxTree(common.HexToHash("0xaa"), 3, 2)
	root := txTree.Insert(-1, &model.Unclassified{TraceIndex: 0})
	txTree.Insert(root, &model.EthTransfer{TraceIndex: 1})

	blockTree := &tree.BlockTree{
		Header: model.BlockHeader{Number: 18_500_000},
		Txs:    []*tree.TxTree{txTree},
	}

	if err := sink.PutBlockTree(blockTree); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var records []TxRecord
	for scanner.Scan() {
		var record TxRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	record := records[0]
	if record.BlockNumber != 18_500_000 || record.TxIndex != 3 {
		t.Fatalf("unexpected record header: %+v", record)
	}
	if len(record.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(record.Nodes))
	}
	if record.Nodes[0].Kind != "unclassified" || record.Nodes[1].Kind != "eth_transfer" {
		t.Fatalf("unexpected node kinds: %+v", record.Nodes)
	}
}

func TestPutBlockTreeSkipsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trees.jsonl")
	sink := NewJsonlStorage(path)

	if err := sink.PutBlockTree(&tree.BlockTree{}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file created for empty block")
	}
}
