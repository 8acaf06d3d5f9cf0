// Package store provides SQLite-backed storage for tagged records.
//
// Every record lives in a single table:
//
//	records(id TEXT PRIMARY KEY, type TEXT, value TEXT, tags TEXT)
//
// The value column holds the JSON-encoded record payload and the tags
// column holds the JSON-encoded tag map. Tags are kept out of the value
// payload so that queries can filter on them without decoding records.
//
// # Operations
//
//   - Save inserts a new row; a second row with the same id is a
//     duplicate regardless of type.
//   - Update rewrites value and tags by id. Updating a missing id is a
//     successful no-op.
//   - Delete and DeleteByID remove a row by id; missing ids are a no-op.
//   - GetByID returns a not-found error when no row matches.
//   - GetAll and FindByQuery read every row of a type in insertion order.
//     FindByQuery filters decoded tag maps in memory with package query
//     and only then applies offset and limit.
//
// The store maintains the created_at and updated_at tags. Reading a
// record's own tags may fail; Save then persists only the two timestamp
// tags instead of aborting.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - One open connection: SQLite allows a single writer
//
// The default driver is mattn/go-sqlite3 ("sqlite3"). The pure-Go
// modernc.org/sqlite driver ("sqlite") can be selected with WithDriver.
package store
