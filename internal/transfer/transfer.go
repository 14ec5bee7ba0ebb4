// Package transfer carries one transaction between screens as a string
// navigation parameter.
package transfer

import (
	"encoding/json"
	"errors"
	"fmt"

	"tally/internal/core"
)

// Navigation parameter names.
const (
	ParamTransaction    = "transaction"
	ParamNewTransaction = "newTransaction"
)

// ErrMalformedPayload means a screen was reached with a parameter that does
// not decode to a transaction.
var ErrMalformedPayload = errors.New("malformed transaction payload")

// Encode serializes tx for use as a navigation parameter.
func Encode(tx core.Transaction) (string, error) {
	b, err := json.Marshal(tx)
	if err != nil {
		return "", fmt.Errorf("encode transaction %s: %w", tx.ID, err)
	}
	return string(b), nil
}

// MustEncode is Encode for values known to serialize, such as loaded records.
func MustEncode(tx core.Transaction) string {
	s, err := Encode(tx)
	if err != nil {
		panic(err)
	}
	return s
}

// Decode reconstructs a transaction. There is no schema version: fields the
// payload does not carry are left empty.
func Decode(s string) (core.Transaction, error) {
	var tx core.Transaction
	if err := json.Unmarshal([]byte(s), &tx); err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return tx, nil
}

// EncodeList and DecodeList are the persisted form of the whole collection.
func EncodeList(list []core.Transaction) ([]byte, error) {
	if list == nil {
		list = []core.Transaction{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("encode transaction list: %w", err)
	}
	return b, nil
}

func DecodeList(b []byte) ([]core.Transaction, error) {
	var list []core.Transaction
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return list, nil
}
