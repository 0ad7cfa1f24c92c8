// Package ingestion provides pipeline orchestration for document writes.
//
// The Pipeline type manages the full ingestion workflow:
//   - Splitting source text into token-budgeted, overlapping chunks
//   - Generating one embedding per chunk concurrently on a worker pool,
//     with bounded exponential-backoff retries per chunk
//   - Writing the document and every chunk in one transaction, so a
//     document is never persisted partially chunked
//   - Document lifecycle: update (deprecate + re-ingest), delete, and
//     reaping of deprecated documents past the grace period
//
// Writes for the same conceptual document are serialized through striped
// locks; different documents ingest fully in parallel.
package ingestion
