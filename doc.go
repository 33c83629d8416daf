// Package inventory matches the sales of a trader to the purchases they
// consumed, first in first out, so that the realized profit of every sale can
// be computed.
//
// The core functionalities include:
//   - Transactions and Matches: a Transaction is a buy or a sell of one item
//     type, a Match attributes part of a sale to part of a purchase.
//   - Reconciliation: a Reconciler brings the matches of an item type up to
//     date after new transactions were stored, possibly older than what was
//     already matched. It finds the first point in time from which the
//     counters are stale, reverts the matches from there, and matches the
//     stock left.
//   - Scheduling: a Scheduler runs reconciliations in the background, one
//     worker per shard of item types.
//   - Persistence: the Store interface is implemented by the in-memory Book,
//     persisted as JSONL files, and by the sqlstore package.
//   - Reporting: realized profits per match and per item type.
package inventory
