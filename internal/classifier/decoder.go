package classifier

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"traceScope/internal/metadata"
	"traceScope/internal/model"
)

// CallInfo is the projection of a trace frame handed to a decoder
// transformation body.
type CallInfo struct {
	TraceIndex uint64
	From       common.Address
	Target     common.Address
	MsgSender  common.Address
	Value      *big.Int
}

// DecodeContext carries the read-only lookups a transformation body is
// allowed to make.
type DecodeContext struct {
	Block  uint64
	Meta   metadata.Reader
	Logger *zap.Logger
}

// Token resolves token metadata for an address.
func (c *DecodeContext) Token(address common.Address) (model.Token, error) {
	info, ok := c.Meta.TokenInfo(address)
	if !ok {
		return model.Token{}, &MissingTokenError{Token: address}
	}
	return model.Token{Address: address, Symbol: info.Symbol, Decimals: info.Decimals}, nil
}

// Normalize resolves a token and scales the raw integer amount by its
// decimals. All downstream math runs on the returned rational.
func (c *DecodeContext) Normalize(address common.Address, amount *big.Int) (model.Token, model.Rational, error) {
	token, err := c.Token(address)
	if err != nil {
		return model.Token{}, model.Rational{}, err
	}
	return token, model.RationalFromInt(amount, token.Decimals), nil
}

// CallData is a decoded ABI value set, addressable by argument name.
type CallData struct {
	args   abi.Arguments
	values []interface{}
	byName map[string]int
}

func newCallData(args abi.Arguments, values []interface{}) *CallData {
	byName := make(map[string]int, len(args))
	for i, arg := range args {
		byName[arg.Name] = i
	}
	return &CallData{args: args, values: values, byName: byName}
}

// Value returns the raw decoded value for a named argument.
func (c *CallData) Value(name string) (interface{}, error) {
	idx, ok := c.byName[name]
	if !ok || idx >= len(c.values) {
		return nil, fmt.Errorf("%w: no argument %q", ErrDecode, name)
	}
	return c.values[idx], nil
}

// At returns the raw decoded value at a positional index, for unnamed
// outputs.
func (c *CallData) At(idx int) (interface{}, error) {
	if idx < 0 || idx >= len(c.values) {
		return nil, fmt.Errorf("%w: no value at %d", ErrDecode, idx)
	}
	return c.values[idx], nil
}

// Address returns a named address argument.
func (c *CallData) Address(name string) (common.Address, error) {
	v, err := c.Value(name)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := v.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: argument %q is %T, not address", ErrDecode, name, v)
	}
	return addr, nil
}

// BigInt returns a named integer argument.
func (c *CallData) BigInt(name string) (*big.Int, error) {
	v, err := c.Value(name)
	if err != nil {
		return nil, err
	}
	return asBigInt(v)
}

// Addresses returns a named dynamic address array argument.
func (c *CallData) Addresses(name string) ([]common.Address, error) {
	v, err := c.Value(name)
	if err != nil {
		return nil, err
	}
	addrs, ok := v.([]common.Address)
	if !ok {
		return nil, fmt.Errorf("%w: argument %q is %T, not address[]", ErrDecode, name, v)
	}
	return addrs, nil
}

// BigInts returns a named dynamic integer array argument.
func (c *CallData) BigInts(name string) ([]*big.Int, error) {
	v, err := c.Value(name)
	if err != nil {
		return nil, err
	}
	ints, ok := v.([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: argument %q is %T, not uint256[]", ErrDecode, name, v)
	}
	return ints, nil
}

// Tuple returns a named struct argument as a reflect-backed accessor.
func (c *CallData) Tuple(name string) (*Tuple, error) {
	v, err := c.Value(name)
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: argument %q is %T, not tuple", ErrDecode, name, v)
	}
	return &Tuple{value: rv}, nil
}

// Tuple wraps an ABI-decoded struct value. The abi package generates
// anonymous structs with upper-cased component names.
type Tuple struct {
	value reflect.Value
}

func (t *Tuple) field(name string) (interface{}, error) {
	field := t.value.FieldByName(strings.ToUpper(name[:1]) + name[1:])
	if !field.IsValid() {
		return nil, fmt.Errorf("%w: no tuple field %q", ErrDecode, name)
	}
	return field.Interface(), nil
}

// Address returns a named address component.
func (t *Tuple) Address(name string) (common.Address, error) {
	v, err := t.field(name)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := v.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: tuple field %q is %T, not address", ErrDecode, name, v)
	}
	return addr, nil
}

// BigInt returns a named integer component.
func (t *Tuple) BigInt(name string) (*big.Int, error) {
	v, err := t.field(name)
	if err != nil {
		return nil, err
	}
	return asBigInt(v)
}

// DecodedLog is one matched event with indexed and data fields merged.
type DecodedLog struct {
	Name    string
	Emitter common.Address
	fields  map[string]interface{}
}

// Addr returns a named address field.
func (l *DecodedLog) Addr(name string) (common.Address, error) {
	v, ok := l.fields[name]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: log %s has no field %q", ErrDecode, l.Name, name)
	}
	addr, isAddr := v.(common.Address)
	if !isAddr {
		return common.Address{}, fmt.Errorf("%w: log field %q is %T, not address", ErrDecode, name, v)
	}
	return addr, nil
}

// BigInt returns a named integer field.
func (l *DecodedLog) BigInt(name string) (*big.Int, error) {
	v, ok := l.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: log %s has no field %q", ErrDecode, l.Name, name)
	}
	return asBigInt(v)
}

// DecodedInput bundles whatever the decoder declared it wants.
type DecodedInput struct {
	CallData   *CallData
	Logs       []*DecodedLog
	ReturnData *CallData
}

// Log returns the matched log at position i in the declared set.
func (d *DecodedInput) Log(i int) *DecodedLog {
	if i < 0 || i >= len(d.Logs) {
		return nil
	}
	return d.Logs[i]
}

// ActionDecoder decodes one (protocol, function) pair into a
// normalized action. The three wants bits (call data, logs, return
// data) plus the declared log set are static metadata; the framework
// slices, unpacks, and matches before the transformation body runs.
// There is no tracer bit: a transformation body sees only the
// read-only DecodeContext, which carries no tracer.
type ActionDecoder struct {
	Protocol model.Protocol
	ABI      *lazyABI
	Method   string

	WantsCallData   bool
	WantsLogs       bool
	WantsReturnData bool

	// Logs lists required event names in emission order. When two
	// entries share an event signature they bind to distinct log
	// occurrences, earliest first.
	Logs []string

	Transform func(ctx *DecodeContext, call CallInfo, in *DecodedInput) (model.Action, error)
}

// Selector returns the 4-byte selector of the decoder's function.
func (d *ActionDecoder) Selector() ([4]byte, error) {
	var sel [4]byte
	parsed, err := d.ABI.get()
	if err != nil {
		return sel, err
	}
	method, ok := parsed.Methods[d.Method]
	if !ok {
		return sel, fmt.Errorf("abi has no method %q", d.Method)
	}
	copy(sel[:], method.ID)
	return sel, nil
}

// Decode runs the framework steps and the transformation body.
func (d *ActionDecoder) Decode(ctx *DecodeContext, trace *model.Trace, call CallInfo) (model.Action, error) {
	parsed, err := d.ABI.get()
	if err != nil {
		return nil, err
	}
	method, ok := parsed.Methods[d.Method]
	if !ok {
		return nil, fmt.Errorf("abi has no method %q", d.Method)
	}

	in := &DecodedInput{}

	if d.WantsCallData {
		if len(trace.Input) < 4 {
			return nil, fmt.Errorf("%w: input shorter than selector", ErrDecode)
		}
		values, err := method.Inputs.Unpack(trace.Input[4:])
		if err != nil {
			return nil, fmt.Errorf("%w: calldata %s: %v", ErrDecode, d.Method, err)
		}
		in.CallData = newCallData(method.Inputs, values)
	}

	if d.WantsLogs {
		logs, err := matchLogs(parsed, d.Logs, trace.Logs)
		if err != nil {
			return nil, err
		}
		in.Logs = logs
	}

	if d.WantsReturnData {
		values, err := method.Outputs.Unpack(trace.Output)
		if err != nil {
			return nil, fmt.Errorf("%w: return data %s: %v", ErrDecode, d.Method, err)
		}
		in.ReturnData = newCallData(method.Outputs, values)
	}

	return d.Transform(ctx, call, in)
}

// matchLogs binds each declared event name to the first unconsumed log
// carrying its signature, scanning emission order. Extra logs are
// ignored; a missing required log fails the decode.
func matchLogs(parsed abi.ABI, names []string, logs []model.Log) ([]*DecodedLog, error) {
	matched := make([]*DecodedLog, 0, len(names))
	used := make([]bool, len(logs))

	for _, name := range names {
		event, ok := parsed.Events[name]
		if !ok {
			return nil, fmt.Errorf("abi has no event %q", name)
		}

		found := -1
		for i, log := range logs {
			if used[i] || len(log.Topics) == 0 {
				continue
			}
			if log.Topics[0] == event.ID {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("%w: missing log %s", ErrDecode, name)
		}
		used[found] = true

		decoded, err := decodeEventLog(&event, &logs[found])
		if err != nil {
			return nil, err
		}
		matched = append(matched, decoded)
	}
	return matched, nil
}

func decodeEventLog(event *abi.Event, log *model.Log) (*DecodedLog, error) {
	indexed := indexedArguments(event.Inputs)
	if len(log.Topics) != len(indexed)+1 {
		return nil, fmt.Errorf("%w: log %s expects %d topics, got %d", ErrDecode, event.Name, len(indexed)+1, len(log.Topics))
	}

	fields := make(map[string]interface{})
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(fields, indexed, log.Topics[1:]); err != nil {
			return nil, fmt.Errorf("%w: log %s topics: %v", ErrDecode, event.Name, err)
		}
	}
	if err := event.Inputs.NonIndexed().UnpackIntoMap(fields, log.Data); err != nil {
		return nil, fmt.Errorf("%w: log %s data: %v", ErrDecode, event.Name, err)
	}

	return &DecodedLog{Name: event.Name, Emitter: log.Address, fields: fields}, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch typed := value.(type) {
	case *big.Int:
		return typed, nil
	case uint8:
		return big.NewInt(int64(typed)), nil
	case uint16:
		return big.NewInt(int64(typed)), nil
	case uint32:
		return big.NewInt(int64(typed)), nil
	case uint64:
		return new(big.Int).SetUint64(typed), nil
	case int64:
		return big.NewInt(typed), nil
	default:
		return nil, fmt.Errorf("%w: unexpected integer type %T", ErrDecode, value)
	}
}
