// Package core provides the workbook migration engine: dry runs, imports,
// progress reporting and job bookkeeping. It has no transport dependencies
// and is shared by the HTTP server and the CLI.
//
// The engine is organized around a few concepts:
//
//   - Table definitions: one per target table, registered at init time
//     with [Register] (see package tables). [All] returns them in
//     record.ImportOrder, which is the order imports write in.
//   - Jobs: [Service.DryRun] parses a workbook, keeps its bytes under a new
//     job id and opens the job's progress topic. Jobs expire after
//     [Options.JobTTL]; [Service.StartJobSweeper] removes them.
//   - Imports: [Service.StartImport] claims an import slot and runs
//     [Service.ImportData] in the background. Progress is read with
//     [Service.SubscribeProgress]; the terminal event carries the
//     [MigrationResult].
//
// # Progress
//
// For one job, events arrive in the order the work happens:
//
//	parsing (0/0)
//	parsing (one per sheet, Sheet set)
//	parsing (Total = records parsed)
//	importing (Current = 0..10, Total = 11, Table set)
//	complete (Current = Total = 11, Result set)
//
// A workbook that cannot be loaded produces a single error event after the
// first parsing event instead.
//
// # Errors
//
// Engine errors are plain Go errors wrapping the sentinels in this package.
// Use [MapError] to turn any of them into a message fit for end users.
package core
