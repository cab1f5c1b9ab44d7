// Package ledger tracks which records the session user has viewed.
//
// The in-memory viewed set is the source of truth for the session: it is
// populated once at session start from durable storage, grows monotonically
// on every view, and is only dropped at logout. Durable writes are a policy
// choice: the default optimistic mode advances the set synchronously and
// writes best-effort in the background, so a transient write failure costs a
// duplicate "new" badge after the next reload rather than UI inconsistency
// now. Strict mode awaits the write and rolls the set back on failure.
//
// Three Store implementations cover the deployment shapes: PlatformStore
// persists view events through the record API (the default), DBStore uses a
// SQL database, and RedisStore shares state across tabs through Redis.
package ledger
