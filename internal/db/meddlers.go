package db

import (
	"database/sql"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/russross/meddler"
)

func init() {
	meddler.Register("address", textMeddler[common.Address]{
		decode: func(s string) (common.Address, error) { return common.HexToAddress(s), nil },
		encode: func(a common.Address) string { return a.Hex() },
	})
	meddler.Register("hash", textMeddler[common.Hash]{
		decode: func(s string) (common.Hash, error) { return common.HexToHash(s), nil },
		encode: func(h common.Hash) string { return h.Hex() },
	})
	meddler.Register("bigint", BigIntMeddler{})
}

// textMeddler stores a fixed size chain value as its hex text form.
// Both T and *T fields are supported; a nil *T is written as NULL.
type textMeddler[T any] struct {
	decode func(string) (T, error)
	encode func(T) string
}

func (m textMeddler[T]) PreRead(fieldAddr any) (scanTarget any, err error) {
	return new(sql.NullString), nil
}

func (m textMeddler[T]) PostRead(fieldAddr, scanTarget any) error {
	ns, ok := scanTarget.(*sql.NullString)
	if !ok {
		return fmt.Errorf("expected *sql.NullString, got %T", scanTarget)
	}

	switch ptr := fieldAddr.(type) {
	case **T:
		if !ns.Valid {
			*ptr = nil
			return nil
		}
		v, err := m.decode(ns.String)
		if err != nil {
			return err
		}
		*ptr = &v
	case *T:
		var zero T
		if !ns.Valid {
			*ptr = zero
			return nil
		}
		v, err := m.decode(ns.String)
		if err != nil {
			return err
		}
		*ptr = v
	default:
		return fmt.Errorf("unsupported field type %T", fieldAddr)
	}

	return nil
}

func (m textMeddler[T]) PreWrite(field any) (saveValue any, err error) {
	switch v := field.(type) {
	case *T:
		if v == nil {
			return nil, nil
		}
		return m.encode(*v), nil
	case T:
		return m.encode(v), nil
	default:
		return nil, fmt.Errorf("unsupported field type %T", field)
	}
}

// BigIntMeddler stores *big.Int values as base 10 text so that amounts
// wider than 64 bits survive the round trip. A nil *big.Int is NULL.
type BigIntMeddler struct{}

func (BigIntMeddler) PreRead(fieldAddr any) (scanTarget any, err error) {
	return new(sql.NullString), nil
}

func (BigIntMeddler) PostRead(fieldAddr, scanTarget any) error {
	ns, ok := scanTarget.(*sql.NullString)
	if !ok {
		return fmt.Errorf("expected *sql.NullString, got %T", scanTarget)
	}

	ptr, ok := fieldAddr.(**big.Int)
	if !ok {
		return fmt.Errorf("expected **big.Int, got %T", fieldAddr)
	}

	if !ns.Valid {
		*ptr = nil
		return nil
	}

	v, ok := new(big.Int).SetString(ns.String, 10)
	if !ok {
		return fmt.Errorf("invalid decimal amount %q", ns.String)
	}
	*ptr = v

	return nil
}

func (BigIntMeddler) PreWrite(field any) (saveValue any, err error) {
	v, ok := field.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("expected *big.Int, got %T", field)
	}
	if v == nil {
		return nil, nil
	}

	return v.String(), nil
}
