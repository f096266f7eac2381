// Package credential holds the process-wide credential state: the ordered
// list of API keys, the active provider and base URL, and the rotation
// cursor used to pick the next key.
//
// # Lifecycle
//
// A [Store] is built once at startup with [Load], from an environment
// credential string first and the settings adapter second. When the
// environment supplies credentials the store is locked: the key list, base
// URL and provider can no longer be changed through the setters.
//
// # Rotation
//
// The store's own cursor is shared by every caller and guarded by a mutex,
// so concurrent operations interleave their key selection. Callers that need
// strict round-robin-from-first-key per operation take an isolated
// [Rotation] from [Store.Rotator] instead.
package credential
