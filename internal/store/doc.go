// Package store provides SQLite-backed storage for saved searches.
//
// A saved search is a title plus a query persisted in its serialized XML
// form (package serial). Reading a search back always goes through the
// deserializer, so what is stored is exactly what the encoder produced.
//
// # Identity
//
//   - Each saved search has an opaque id (UUIDv7 by default, injectable
//     for tests).
//   - Queries are deduplicated by fingerprint (query.Fingerprint): saving
//     an equal query twice returns the existing record.
//
// # Ordering
//
//   - seq is a per-database logical counter assigned on insert.
//   - Listings use ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
