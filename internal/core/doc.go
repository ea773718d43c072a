// Package core implements the equipment telemetry ingestion pipeline.
//
// This package is the heart of the service, containing all domain logic
// independent of any transport layer. It can be driven by web handlers, CLI
// tools, or tests without modification.
//
// # Pipeline
//
// An upload flows through four stages:
//
//  1. [ParseRecords] turns raw CSV bytes into typed [EquipmentRecord] rows.
//     Parsing is all-or-nothing: one bad numeric cell rejects the upload.
//  2. [Summarize] reduces the rows to a [Summary] (count, type distribution,
//     per-field averages and ranges) in a single pass.
//  3. [EvictionPlan] decides which old datasets must go so that at most K
//     remain after the new one is admitted.
//  4. [Store.CreateEvicting] applies the eviction and the insert as one
//     atomic unit.
//
// Eviction is decided only after the upload has parsed successfully, so a
// rejected upload can never destroy history.
//
// # Capabilities
//
// [Service] receives its storage ([Store]), audit ([AuditLog]), and raw-file
// ([BlobStore]) capabilities at construction. Implementations live under
// internal/store and internal/blob; tests use the in-memory store.
//
// # Errors
//
// Callers branch on error kind with errors.Is / errors.As: [EmptyInputError],
// [ParseError], [ErrNotFound], [StorageError], [ErrTooManyUploads]. The core
// does not log or retry; [MapError] translates any pipeline error into a
// user-facing message with a stable support code.
package core
