// Package notifier delivers bridge messages to the operator chat.
//
// Two kinds of messages go through it: status changes of the newest
// submission and failure reports from the poll loop. Delivery is
// synchronous and best-effort: Notify logs and swallows transport errors so
// that a broken chat never stops the loop or its cursor.
//
// # Throttling
//
// Outbound sends share one token bucket. An optional dedup window suppresses
// an identical message (same kind and text) that was already delivered within
// the window; with storage enabled the window survives restarts.
//
// # History
//
// For debugging and operator visibility, the service keeps a small in-memory
// history of recently delivered messages, and appends every attempt to the
// storage journal when one is configured.
package notifier
