package inventory

import (
	"encoding/json"
	"fmt"
)

// MatchKey identifies a match: a buy/sell pair is matched at most once.
type MatchKey struct {
	BuyID  int64
	SellID int64
}

func (k MatchKey) String() string { return fmt.Sprintf("%d->%d", k.BuyID, k.SellID) }

// Match attributes Quantity units of a sale to a purchase.
type Match struct {
	BuyID    int64
	SellID   int64
	Quantity int64
}

// Key returns the identity of the match.
func (m Match) Key() MatchKey { return MatchKey{BuyID: m.BuyID, SellID: m.SellID} }

// ValidateAgainst checks that m can link buy and sell.
func (m Match) ValidateAgainst(buy, sell Transaction) error {
	switch {
	case m.Quantity <= 0:
		return fmt.Errorf("match %s: quantity must be positive, got %d", m.Key(), m.Quantity)
	case !buy.IsBuy():
		return fmt.Errorf("match %s: transaction %d is not a purchase", m.Key(), buy.ID)
	case sell.IsBuy():
		return fmt.Errorf("match %s: transaction %d is not a sale", m.Key(), sell.ID)
	case buy.TypeID != sell.TypeID:
		return fmt.Errorf("match %s: type %d cannot match type %d", m.Key(), buy.TypeID, sell.TypeID)
	}
	return nil
}

// MarshalJSON implements the json.Marshaler interface for Match.
func (m Match) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("buy", m.BuyID)
	w.Append("sell", m.SellID)
	w.Append("quantity", m.Quantity)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for Match.
func (m *Match) UnmarshalJSON(data []byte) error {
	var temp struct {
		BuyID    int64 `json:"buy"`
		SellID   int64 `json:"sell"`
		Quantity int64 `json:"quantity"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*m = Match{BuyID: temp.BuyID, SellID: temp.SellID, Quantity: temp.Quantity}
	return nil
}
