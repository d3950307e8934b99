package core

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sahilm/fuzzy"
	"github.com/urbandao/urbandao/internal/domain"
)

// Args are the unpacked inputs of a method call, in ABI order.
type Args []interface{}

func (a Args) at(i int) interface{} {
	if i < 0 || i >= len(a) {
		return nil
	}
	return a[i]
}

func (a Args) Uint64(i int) uint64 {
	switch v := a.at(i).(type) {
	case uint64:
		return v
	case uint32:
		return uint64(v)
	case uint16:
		return uint64(v)
	case uint8:
		return uint64(v)
	case *big.Int:
		if v.IsUint64() {
			return v.Uint64()
		}
	}
	return 0
}

func (a Args) Uint16(i int) uint16 {
	if v, ok := a.at(i).(uint16); ok {
		return v
	}
	return uint16(a.Uint64(i))
}

func (a Args) Uint8(i int) uint8 {
	if v, ok := a.at(i).(uint8); ok {
		return v
	}
	return uint8(a.Uint64(i))
}

// Big returns a copy of a uint256 argument.
func (a Args) Big(i int) *big.Int {
	switch v := a.at(i).(type) {
	case *big.Int:
		return new(big.Int).Set(v)
	case uint64:
		return new(big.Int).SetUint64(v)
	}
	return new(big.Int)
}

func (a Args) Address(i int) common.Address {
	v, _ := a.at(i).(common.Address)
	return v
}

func (a Args) String(i int) string {
	v, _ := a.at(i).(string)
	return v
}

func (a Args) Bool(i int) bool {
	v, _ := a.at(i).(bool)
	return v
}

func (a Args) Bytes(i int) []byte {
	v, _ := a.at(i).([]byte)
	return v
}

func (a Args) Strings(i int) []string {
	v, _ := a.at(i).([]string)
	return v
}

func (a Args) BytesList(i int) [][]byte {
	v, _ := a.at(i).([][]byte)
	return v
}

// Pack encodes a call to method on the module's ABI. Unknown method names
// come back as domain.UnknownMethodErr with close matches.
func Pack(m Module, method string, args ...interface{}) ([]byte, error) {
	parsed := m.ABI()
	if _, ok := parsed.Methods[method]; !ok {
		return nil, unknownMethod(m.ID(), method, parsed)
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: pack %s.%s: %v", domain.ErrInvalidInput, m.ID(), method, err)
	}
	return data, nil
}

// MustPack is Pack for arguments known to be well-typed.
func MustPack(m Module, method string, args ...interface{}) []byte {
	data, err := Pack(m, method, args...)
	if err != nil {
		panic(err)
	}
	return data
}

// Lookup finds a method by name, suggesting close names when it is missing.
func Lookup(m Module, method string) (*abi.Method, error) {
	parsed := m.ABI()
	found, ok := parsed.Methods[method]
	if !ok {
		return nil, unknownMethod(m.ID(), method, parsed)
	}
	return &found, nil
}

func unknownMethod(module, method string, parsed abi.ABI) error {
	names := MethodNames(parsed)
	var suggestions []string
	for _, match := range fuzzy.Find(method, names) {
		suggestions = append(suggestions, match.Str)
		if len(suggestions) == 3 {
			break
		}
	}
	return domain.UnknownMethodErr{Module: module, Method: method, Suggestions: suggestions}
}

// MethodNames lists an ABI's method names in sorted order.
func MethodNames(parsed abi.ABI) []string {
	names := make([]string, 0, len(parsed.Methods))
	for name := range parsed.Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseArgs converts textual arguments (command line, proposal files) into
// the Go values the ABI packer expects for method's inputs.
func ParseArgs(method *abi.Method, raw []string) ([]interface{}, error) {
	if len(raw) != len(method.Inputs) {
		return nil, fmt.Errorf("%w: %s expects %d arguments (%s), got %d",
			domain.ErrInvalidInput, method.Name, len(method.Inputs), method.Sig, len(raw))
	}
	out := make([]interface{}, len(raw))
	for i, input := range method.Inputs {
		v, err := parseValue(input.Type, raw[i])
		if err != nil {
			return nil, fmt.Errorf("%w: argument %q: %v", domain.ErrInvalidInput, input.Name, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseValue(t abi.Type, s string) (interface{}, error) {
	s = strings.TrimSpace(s)
	switch t.T {
	case abi.UintTy:
		switch t.Size {
		case 8:
			n, err := strconv.ParseUint(s, 0, 8)
			return uint8(n), err
		case 16:
			n, err := strconv.ParseUint(s, 0, 16)
			return uint16(n), err
		case 32:
			n, err := strconv.ParseUint(s, 0, 32)
			return uint32(n), err
		case 64:
			return strconv.ParseUint(s, 0, 64)
		default:
			n, ok := new(big.Int).SetString(s, 0)
			if !ok || n.Sign() < 0 {
				return nil, fmt.Errorf("not an unsigned integer: %s", s)
			}
			return n, nil
		}
	case abi.AddressTy:
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("not an address: %s", s)
		}
		return common.HexToAddress(s), nil
	case abi.StringTy:
		return s, nil
	case abi.BoolTy:
		return strconv.ParseBool(s)
	case abi.BytesTy:
		return hexutil.Decode(s)
	case abi.FixedBytesTy:
		if t.Size != 32 {
			return nil, fmt.Errorf("unsupported fixed bytes size %d", t.Size)
		}
		return [32]byte(common.HexToHash(s)), nil
	case abi.SliceTy:
		if s == "" {
			return emptySlice(*t.Elem)
		}
		parts := strings.Split(s, ",")
		switch t.Elem.T {
		case abi.StringTy:
			return parts, nil
		case abi.BytesTy:
			list := make([][]byte, len(parts))
			for i, p := range parts {
				b, err := hexutil.Decode(strings.TrimSpace(p))
				if err != nil {
					return nil, err
				}
				list[i] = b
			}
			return list, nil
		}
	}
	return nil, fmt.Errorf("unsupported argument type %s", t.String())
}

func emptySlice(elem abi.Type) (interface{}, error) {
	switch elem.T {
	case abi.StringTy:
		return []string{}, nil
	case abi.BytesTy:
		return [][]byte{}, nil
	}
	return nil, fmt.Errorf("unsupported slice element %s", elem.String())
}
