// Package sqlstore implements inventory.Store on top of a SQL database with
// gorm. Every unit of work is a database transaction.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/etnz/inventory"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store is an inventory.Store backed by SQLite.
type Store struct {
	db *gorm.DB
}

var _ inventory.Store = (*Store)(nil)

// Open opens the SQLite database at dsn, typically a file path, and creates
// the tables if needed.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dsn, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite has a single writer: units of work queue on one connection.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&transactionRow{}, &matchRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrating %s: %w", dsn, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// batchSize bounds the rows inserted, and the ids looked up, per statement,
// below the limit SQLite sets on bound variables.
var batchSize = 200

// Add inserts new transactions. Transactions are validated and ids must be
// new. Nothing is added if any of them is rejected.
func (s *Store) Add(ctx context.Context, txs ...inventory.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return insert(db, txs)
	})
}

func insert(db *gorm.DB, txs []inventory.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	rows := make([]transactionRow, 0, len(txs))
	ids := make([]int64, 0, len(txs))
	seen := make(map[int64]bool, len(txs))
	for _, t := range txs {
		if err := t.Validate(); err != nil {
			return err
		}
		if seen[t.ID] {
			return fmt.Errorf("transaction %d: %w", t.ID, inventory.ErrDuplicate)
		}
		seen[t.ID] = true
		rows = append(rows, newTransactionRow(t))
		ids = append(ids, t.ID)
	}
	existing, err := existingIDs(db, ids)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return fmt.Errorf("transaction %d: %w", existing[0], inventory.ErrDuplicate)
	}
	return db.CreateInBatches(rows, batchSize).Error
}

// existingIDs returns the ids already stored, looking them up batchSize at a time.
func existingIDs(db *gorm.DB, ids []int64) ([]int64, error) {
	var existing []int64
	for chunk := range slices.Chunk(ids, batchSize) {
		var found []int64
		if err := db.Model(&transactionRow{}).Where("id IN ?", chunk).Pluck("id", &found).Error; err != nil {
			return nil, err
		}
		existing = append(existing, found...)
	}
	return existing, nil
}

// Import inserts the transactions whose id is unknown and skips the others.
// It returns the transactions actually added.
func (s *Store) Import(ctx context.Context, txs ...inventory.Transaction) ([]inventory.Transaction, error) {
	ids := make([]int64, 0, len(txs))
	for _, t := range txs {
		ids = append(ids, t.ID)
	}
	var fresh []inventory.Transaction
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		existing, err := existingIDs(db, ids)
		if err != nil {
			return err
		}
		known := make(map[int64]bool, len(existing))
		for _, id := range existing {
			known[id] = true
		}
		fresh = make([]inventory.Transaction, 0, len(txs))
		for _, t := range txs {
			if known[t.ID] {
				continue
			}
			known[t.ID] = true
			fresh = append(fresh, t)
		}
		return insert(db, fresh)
	})
	if err != nil {
		return nil, err
	}
	return fresh, nil
}

// Types returns the item types present in the store, in ascending order.
func (s *Store) Types(ctx context.Context) ([]int64, error) {
	var types []int64
	err := s.db.WithContext(ctx).Model(&transactionRow{}).Distinct("type_id").Order("type_id").Pluck("type_id", &types).Error
	return types, err
}

// Book loads a snapshot of the whole store into memory, for reports.
func (s *Store) Book(ctx context.Context) (*inventory.Book, error) {
	var txRows []transactionRow
	if err := s.db.WithContext(ctx).Order("at, id").Find(&txRows).Error; err != nil {
		return nil, err
	}
	var matchRows []matchRow
	if err := s.db.WithContext(ctx).Order("sell_id, buy_id").Find(&matchRows).Error; err != nil {
		return nil, err
	}
	b := inventory.NewBook()
	if err := b.Add(transactions(txRows)...); err != nil {
		return nil, err
	}
	if err := b.AddMatches(matches(matchRows)...); err != nil {
		return nil, err
	}
	return b, nil
}

// TransactionsByType implements inventory.Store.
func (s *Store) TransactionsByType(ctx context.Context, typeID int64) ([]inventory.Transaction, error) {
	var rows []transactionRow
	err := s.db.WithContext(ctx).Where("type_id = ?", typeID).Order("at DESC, id DESC").Find(&rows).Error
	return transactions(rows), err
}

// RemainingBuys implements inventory.Store.
func (s *Store) RemainingBuys(ctx context.Context, typeID int64) ([]inventory.Transaction, error) {
	return s.remaining(ctx, typeID, true)
}

// RemainingSells implements inventory.Store.
func (s *Store) RemainingSells(ctx context.Context, typeID int64) ([]inventory.Transaction, error) {
	return s.remaining(ctx, typeID, false)
}

func (s *Store) remaining(ctx context.Context, typeID int64, buy bool) ([]inventory.Transaction, error) {
	var rows []transactionRow
	err := s.db.WithContext(ctx).
		Where("type_id = ? AND buy = ? AND remaining > 0", typeID, buy).
		Order("at, id").
		Find(&rows).Error
	return transactions(rows), err
}

// MatchesAtOrAfter implements inventory.Store.
func (s *Store) MatchesAtOrAfter(ctx context.Context, typeID int64, on time.Time) ([]inventory.Match, error) {
	var rows []matchRow
	err := s.db.WithContext(ctx).
		Table("matches AS m").
		Select("m.buy_id, m.sell_id, m.type_id, m.quantity").
		Joins("JOIN transactions AS b ON b.id = m.buy_id").
		Joins("JOIN transactions AS s ON s.id = m.sell_id").
		Where("m.type_id = ? AND (s.at >= ? OR b.at >= ?)", typeID, on.UnixNano(), on.UnixNano()).
		Order("s.at DESC, s.id DESC").
		Find(&rows).Error
	return matches(rows), err
}

// Atomic implements inventory.Store: fn runs in a database transaction,
// committed if it returns nil.
func (s *Store) Atomic(ctx context.Context, fn func(tx inventory.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&storeTx{db: db})
	})
}

// storeTx is a unit of work within a database transaction.
type storeTx struct {
	db *gorm.DB
}

func (tx *storeTx) Transaction(id int64) (inventory.Transaction, error) {
	var row transactionRow
	err := tx.db.Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return inventory.Transaction{}, fmt.Errorf("transaction %d: %w", id, inventory.ErrNotFound)
	}
	if err != nil {
		return inventory.Transaction{}, err
	}
	return row.transaction(), nil
}

func (tx *storeTx) UpdateTransaction(t inventory.Transaction) error {
	old, err := tx.Transaction(t.ID)
	if err != nil {
		return err
	}
	if err := inventory.CheckCounters(old, t); err != nil {
		return err
	}
	return tx.db.Model(&transactionRow{}).Where("id = ?", t.ID).Updates(map[string]any{
		"remaining":   t.Remaining,
		"written_off": t.WrittenOff,
	}).Error
}

func (tx *storeTx) Match(buyID, sellID int64) (inventory.Match, error) {
	var row matchRow
	err := tx.db.Where("buy_id = ? AND sell_id = ?", buyID, sellID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		k := inventory.MatchKey{BuyID: buyID, SellID: sellID}
		return inventory.Match{}, fmt.Errorf("match %s: %w", k, inventory.ErrNotFound)
	}
	if err != nil {
		return inventory.Match{}, err
	}
	return row.match(), nil
}

func (tx *storeTx) SaveMatch(m inventory.Match) error {
	buy, err := tx.Transaction(m.BuyID)
	if err != nil {
		return err
	}
	sell, err := tx.Transaction(m.SellID)
	if err != nil {
		return err
	}
	if err := m.ValidateAgainst(buy, sell); err != nil {
		return err
	}
	row := matchRow{BuyID: m.BuyID, SellID: m.SellID, TypeID: sell.TypeID, Quantity: m.Quantity}
	return tx.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "buy_id"}, {Name: "sell_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity"}),
	}).Create(&row).Error
}

func (tx *storeTx) DeleteMatch(buyID, sellID int64) error {
	res := tx.db.Where("buy_id = ? AND sell_id = ?", buyID, sellID).Delete(&matchRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		k := inventory.MatchKey{BuyID: buyID, SellID: sellID}
		return fmt.Errorf("match %s: %w", k, inventory.ErrNotFound)
	}
	return nil
}
