// Package api exposes the tenant-scoped read surface over the shared
// store: listings, categories, and sites, all addressed through
// namespaced keys and guarded by permission middleware.
package api
