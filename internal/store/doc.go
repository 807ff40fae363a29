// Package store persists host context properties such as the Gerrit
// connectivity flag, so that other processes can observe them.
//
// # Store Interface
//
// The [Store] interface defines:
//   - Context property writes (SetContext)
//   - Context property reads (GetContext)
//
// # Backends
//
// The backend is selected at build time using build tags:
//   - Default: BoltDB
//   - With -tags sqlite: SQLite via modernc.org/sqlite
//
// Use [Open] to obtain a store rooted in a directory:
//
//	st, err := store.Open(dir)
//	err = st.SetContext(ctx, "gerrit:connected", true)
package store
