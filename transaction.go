package inventory

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side tells whether a transaction bought or sold goods.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// ParseSide parses "buy" or "sell".
func ParseSide(s string) (Side, error) {
	switch s {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return 0, fmt.Errorf("unknown side: %q", s)
	}
}

// Transaction is a single buy or sell of one item type.
//
// The sign of Price carries the side: a negative unit price is a purchase, a
// positive one is a sale. Remaining is the part of Quantity that is neither
// matched nor written off.
type Transaction struct {
	ID         int64
	TypeID     int64
	Price      decimal.Decimal // signed unit price
	Quantity   int64
	Remaining  int64
	WrittenOff int64 // sold quantity that had no purchase to match against
	When       time.Time
}

// NewTransaction creates a transaction as an importer would: nothing matched yet.
func NewTransaction(id, typeID int64, price decimal.Decimal, quantity int64, when time.Time) Transaction {
	return Transaction{
		ID:        id,
		TypeID:    typeID,
		Price:     price,
		Quantity:  quantity,
		Remaining: quantity,
		When:      when,
	}
}

// NewBuy creates a purchase of quantity units at unit price (given as a positive value).
func NewBuy(id, typeID int64, price decimal.Decimal, quantity int64, when time.Time) Transaction {
	return NewTransaction(id, typeID, price.Abs().Neg(), quantity, when)
}

// NewSell creates a sale of quantity units at unit price.
func NewSell(id, typeID int64, price decimal.Decimal, quantity int64, when time.Time) Transaction {
	return NewTransaction(id, typeID, price.Abs(), quantity, when)
}

// IsBuy reports whether the transaction is a purchase.
func (t Transaction) IsBuy() bool { return t.Price.IsNegative() }

// Side returns Buy or Sell according to the price sign.
func (t Transaction) Side() Side {
	if t.IsBuy() {
		return Buy
	}
	return Sell
}

// Consumed reports whether nothing is left to match on this transaction.
func (t Transaction) Consumed() bool { return t.Remaining == 0 }

// UnitPrice returns the absolute unit price.
func (t Transaction) UnitPrice() decimal.Decimal { return t.Price.Abs() }

// beforeOrEqual reports whether t happened no later than o.
func (t Transaction) beforeOrEqual(o Transaction) bool { return !t.When.After(o.When) }

// compareChronological orders transactions by timestamp, then by id.
func compareChronological(a, b Transaction) int {
	if c := a.When.Compare(b.When); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Validate checks the static fields and the counter bounds.
func (t Transaction) Validate() error {
	var errs error
	if t.ID <= 0 {
		errs = errors.Join(errs, fmt.Errorf("id must be positive, got %d", t.ID))
	}
	if t.TypeID <= 0 {
		errs = errors.Join(errs, fmt.Errorf("type id must be positive, got %d", t.TypeID))
	}
	if t.Price.IsZero() {
		errs = errors.Join(errs, errors.New("price must not be zero"))
	}
	if t.Quantity <= 0 {
		errs = errors.Join(errs, fmt.Errorf("quantity must be positive, got %d", t.Quantity))
	}
	if t.Remaining < 0 || t.Remaining > t.Quantity {
		errs = errors.Join(errs, fmt.Errorf("remaining %d out of [0, %d]", t.Remaining, t.Quantity))
	}
	if t.WrittenOff < 0 || t.Remaining+t.WrittenOff > t.Quantity {
		errs = errors.Join(errs, fmt.Errorf("written off %d exceeds the unmatched quantity", t.WrittenOff))
	}
	if t.WrittenOff > 0 && t.IsBuy() {
		errs = errors.Join(errs, errors.New("a purchase cannot be written off"))
	}
	if t.When.IsZero() {
		errs = errors.Join(errs, errors.New("timestamp is missing"))
	}
	if errs != nil {
		return fmt.Errorf("%w %d: %w", ErrInvalidTransaction, t.ID, errs)
	}
	return nil
}

func (t Transaction) String() string {
	return fmt.Sprintf("%s#%d type %d %d@%s (%d left) on %s", t.Side(), t.ID, t.TypeID, t.Quantity, t.UnitPrice(), t.Remaining, t.When.Format(time.RFC3339))
}

// MarshalJSON implements the json.Marshaler interface for Transaction.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", t.ID)
	w.Append("type", t.TypeID)
	w.Append("when", t.When.UTC().Format(time.RFC3339))
	w.Append("price", t.Price)
	w.Append("quantity", t.Quantity)
	w.Append("remaining", t.Remaining)
	w.Optional("writtenOff", t.WrittenOff)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for Transaction.
// A missing remaining counter means nothing was matched yet.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var temp struct {
		ID         int64           `json:"id"`
		TypeID     int64           `json:"type"`
		When       time.Time       `json:"when"`
		Price      decimal.Decimal `json:"price"`
		Quantity   int64           `json:"quantity"`
		Remaining  *int64          `json:"remaining"`
		WrittenOff int64           `json:"writtenOff"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*t = NewTransaction(temp.ID, temp.TypeID, temp.Price, temp.Quantity, temp.When)
	if temp.Remaining != nil {
		t.Remaining = *temp.Remaining
	}
	t.WrittenOff = temp.WrittenOff
	return nil
}
