package sqlstore

import (
	"time"

	"github.com/etnz/inventory"
	"github.com/shopspring/decimal"
)

// transactionRow is the table layout of a transaction. Timestamps are stored
// as unix nanoseconds so that ordering does not depend on the driver's time format.
type transactionRow struct {
	ID         int64           `gorm:"column:id;primaryKey;autoIncrement:false"`
	TypeID     int64           `gorm:"column:type_id;index:idx_transactions_type_at,priority:1;not null"`
	At         int64           `gorm:"column:at;index:idx_transactions_type_at,priority:2;not null"`
	Buy        bool            `gorm:"column:buy;not null"`
	Price      decimal.Decimal `gorm:"column:price;type:text;not null"`
	Quantity   int64           `gorm:"column:quantity;not null"`
	Remaining  int64           `gorm:"column:remaining;not null"`
	WrittenOff int64           `gorm:"column:written_off;not null;default:0"`
}

func (transactionRow) TableName() string { return "transactions" }

func newTransactionRow(t inventory.Transaction) transactionRow {
	return transactionRow{
		ID:         t.ID,
		TypeID:     t.TypeID,
		At:         t.When.UnixNano(),
		Buy:        t.IsBuy(),
		Price:      t.Price,
		Quantity:   t.Quantity,
		Remaining:  t.Remaining,
		WrittenOff: t.WrittenOff,
	}
}

func (r transactionRow) transaction() inventory.Transaction {
	return inventory.Transaction{
		ID:         r.ID,
		TypeID:     r.TypeID,
		Price:      r.Price,
		Quantity:   r.Quantity,
		Remaining:  r.Remaining,
		WrittenOff: r.WrittenOff,
		When:       time.Unix(0, r.At).UTC(),
	}
}

// matchRow is the table layout of a match. The type is denormalized to list
// the matches of a type without a join.
type matchRow struct {
	BuyID    int64 `gorm:"column:buy_id;primaryKey;autoIncrement:false"`
	SellID   int64 `gorm:"column:sell_id;primaryKey;autoIncrement:false;index"`
	TypeID   int64 `gorm:"column:type_id;index;not null"`
	Quantity int64 `gorm:"column:quantity;not null"`
}

func (matchRow) TableName() string { return "matches" }

func (r matchRow) match() inventory.Match {
	return inventory.Match{BuyID: r.BuyID, SellID: r.SellID, Quantity: r.Quantity}
}

func transactions(rows []transactionRow) []inventory.Transaction {
	list := make([]inventory.Transaction, len(rows))
	for i, r := range rows {
		list[i] = r.transaction()
	}
	return list
}

func matches(rows []matchRow) []inventory.Match {
	list := make([]inventory.Match, len(rows))
	for i, r := range rows {
		list[i] = r.match()
	}
	return list
}
