// Package storage defines the key-value store contract the isolation core
// reads through, and its Redis implementation.
//
// The store is shared by every tenant; nothing in this package knows about
// tenants. Isolation is the keyspace package's job: no caller may issue a
// store operation with a bare, un-namespaced key for tenant data.
//
// The core is read-only with respect to membership and role records; Set
// and TxSet exist for the external management surface and for tests seeding
// records.
package storage
