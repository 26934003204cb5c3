// Package store provides the SQLite-backed item replica.
//
// Items live in the items table; every catalog attribute has its own
// entity-attribute-value table (item, value). Scalar attributes hold at most
// one row per item, collections one row per distinct value. Coverage of the
// replica is persisted in sync_coverage and sync_coverage_meta.
//
// # Critical Patterns
//
// Deterministic Query Results
//   - Every item query ends with ORDER BY item ASC
//   - Result sets are roaring64 bitmaps, so unions are order-free
//
// Transactions
//   - All reads and writes go through View or Update
//   - A Tx implements dp.Reader for in-memory evaluation and
//     syncreg.Sink for coverage persistence
//   - The pool holds one connection: calling View or Update from inside fn
//     blocks forever
//
// Scan Fallback
//   - Expressions the SQL compiler cannot lower are answered by evaluating
//     dp.Accept over every item
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - text_match(value, pattern, mode): case-insensitive matcher registered
//     on every connection
package store
