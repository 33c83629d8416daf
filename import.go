package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// DefaultWalletPath selects every row of a wallet transactions export: a JSON array of
//
//	{"transaction_id":5843,"type_id":34,"unit_price":5.5,"quantity":100,"date":"2025-03-01T10:00:00Z","is_buy":true}
const DefaultWalletPath = "$[*]"

// DecodeWallet reads the wallet rows selected by path in a JSON document and
// converts them into new transactions.
func DecodeWallet(r io.Reader, path string) ([]Transaction, error) {
	if path == "" {
		path = DefaultWalletPath
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var jobj any
	if err := dec.Decode(&jobj); err != nil {
		return nil, fmt.Errorf("not a correct json document: %w", err)
	}
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, fmt.Errorf("error evaluating %q: %w", path, err)
	}
	// jsonpath returns a single value, or a list of them for wildcards.
	rows, ok := jval.([]any)
	if !ok {
		rows = []any{jval}
	}

	txs := make([]Transaction, 0, len(rows))
	var errs error
	for i, row := range rows {
		t, err := walletRow(row)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("row %d: %w", i, err))
			continue
		}
		txs = append(txs, t)
	}
	if errs != nil {
		return nil, errs
	}
	return txs, nil
}

// walletRow converts a single wallet row.
func walletRow(row any) (Transaction, error) {
	obj, ok := row.(map[string]any)
	if !ok {
		return Transaction{}, fmt.Errorf("expected an object, got %T", row)
	}
	id, err := jsonInt(obj, "transaction_id")
	if err != nil {
		return Transaction{}, err
	}
	typeID, err := jsonInt(obj, "type_id")
	if err != nil {
		return Transaction{}, err
	}
	quantity, err := jsonInt(obj, "quantity")
	if err != nil {
		return Transaction{}, err
	}
	price, err := jsonDecimal(obj, "unit_price")
	if err != nil {
		return Transaction{}, err
	}
	on, ok := obj["date"].(string)
	if !ok {
		return Transaction{}, fmt.Errorf("property %q must be of type 'string'", "date")
	}
	when, err := time.Parse(time.RFC3339, on)
	if err != nil {
		return Transaction{}, fmt.Errorf("property %q must be a RFC3339 timestamp: %w", "date", err)
	}
	isBuy, ok := obj["is_buy"].(bool)
	if !ok {
		return Transaction{}, fmt.Errorf("property %q must be of type 'bool'", "is_buy")
	}

	t := NewSell(id, typeID, price, quantity, when.UTC())
	if isBuy {
		t = NewBuy(id, typeID, price, quantity, when.UTC())
	}
	return t, t.Validate()
}

func jsonInt(obj map[string]any, key string) (int64, error) {
	switch v := obj[key].(type) {
	case json.Number:
		return v.Int64()
	case string:
		return strconv.ParseInt(v, 10, 64)
	case nil:
		return 0, fmt.Errorf("missing property %q", key)
	default:
		return 0, fmt.Errorf("property %q must be an integer, got %T", key, v)
	}
}

func jsonDecimal(obj map[string]any, key string) (decimal.Decimal, error) {
	switch v := obj[key].(type) {
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		return decimal.NewFromString(v)
	case nil:
		return decimal.Zero, fmt.Errorf("missing property %q", key)
	default:
		return decimal.Zero, fmt.Errorf("property %q must be a number, got %T", key, v)
	}
}

// TypesOf returns the distinct item types of txs, in ascending order.
func TypesOf(txs []Transaction) []int64 {
	set := make(map[int64]bool)
	for _, t := range txs {
		set[t.TypeID] = true
	}
	return slices.Sorted(maps.Keys(set))
}
