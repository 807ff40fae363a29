// Package connection owns the lifecycle of the single Gerrit client used by
// the host.
//
// A [Manager] lazily builds one client from the current credentials and
// caches it. While the credentials are incomplete it reports the host as
// disconnected and warns the user once per distinct credential set. The
// cached client is never re-validated; [Manager.Refresh] and
// [Manager.Reset] drop it explicitly.
//
// [Manager.Verify] is a separate diagnostic path: it builds a throwaway
// client, performs one round trip against the server and reports the
// result to the user without touching the cache.
package connection
