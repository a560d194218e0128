// Package session holds the in-memory state of one wallet session: the
// connected account, the ledger connection handle, the last known balance,
// the mint created during the session and the most recent operation
// result. Only the orchestrator mutates a Holder; presentation layers read
// copies through Snapshot.
package session
