package model

// DecodeError records a classification failure for one trace frame.
type DecodeError struct {
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	TraceIndex  uint64 `json:"trace_index"`
	Address     string `json:"address"`
	Selector    string `json:"selector"`
	Error       string `json:"error"`
}
