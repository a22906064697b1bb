// Package webhook implements the inbound ingestion pipeline for publisher
// push notifications.
//
// # Request Flow
//
//  1. Payload guard: declared Content-Length checked against the 5 MiB
//     ceiling before the body is read (reject with 413)
//  2. Access gate: Authorization: Bearer token compared in constant time
//     (reject with 401; a missing configured secret denies everything)
//  3. Rate limiter: sliding window per client IP against the shared store,
//     racing a 500ms timeout (reject with 429, fail open on store trouble)
//  4. JSON decode + envelope validation (reject with 400)
//  5. Replay guard: timestamp tolerance check, then fingerprint
//     set-if-absent against the shared store, same timeout race
//     (reject with 400, fail open to timestamp-only checking)
//  6. Dispatch by event type; per-article validation; hand the batch to
//     the ingest sink (200 with processed count)
//
// # Failure Policy
//
// Authentication always fails closed. The two store-backed checks fail
// open: availability is prioritized over strict enforcement when the
// store is slow or absent, and the degradation is logged, never surfaced
// to the caller. This asymmetry is deliberate; do not unify it.
package webhook
