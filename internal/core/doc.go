// Package core holds the character cleaning rules for tabular data.
//
// It has no knowledge of file formats, HTTP or storage and can be used by the
// web server, the CLI or tests without modification.
//
// # Cleaning
//
// [Clean] cleans a single cell value and reports what it removed, one count
// per [Category]:
//
//	value, counts := core.Clean("  He said, \"hi\"\r\n  ")
//	// value == "He said hi", counts.Total() == 9
//
// Edge whitespace is stripped, then commas, double quotes, single quotes,
// control characters and anything outside printable ASCII are removed from
// the interior. Interior spaces are kept. Every removed character is counted
// exactly once, attributed by the ordered rule list returned by [Rules].
//
// # Tables
//
// [Process] applies [Clean] to every text cell of a [Table] and returns a new
// table of the same shape with a [Report]. Empty and numeric cells are copied
// unchanged. Cells that could not be read as text are passed through and
// recorded as warnings; a run never fails on cell content.
//
// [ProcessContext] adds cancellation and, with [ProcessOptions.Workers],
// cleans blocks of rows concurrently with identical results.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE007: File errors (size, type, unreadable, output)
//   - CLN001-CLN002: Cleaning warnings (empty table, malformed cell)
//   - RUN001-RUN005: Run errors (busy, not found, cancelled, timeout)
//   - RATE001: Rate limiting
package core
