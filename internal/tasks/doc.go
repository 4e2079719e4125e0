// Package tasks runs long list operations on top of [pager.Controller] with non-blocking progress reporting.
//
// # Operations
//
//  1. [Crawl] : drive a controller until the list is exhausted
//     - used by the CLI `--all` flag for festivals, jobs and reviews
//     - stops on the first page error, keeping what was merged so far
//
//  2. [ReviewExporter.Export] : crawl every review, then fetch comments
//     - comment requests run on a worker pool throttled by a [rate.Limiter]
//     - a failed comment fetch is recorded against its review and does not stop the export
//     - the result is written through [formatter.WriteFile]
//
// # Progress Reporting
//
// Operations accept an optional `chan<- ProgressUpdate`. Sends use select with default so a slow or absent
// reader never stalls the work.
package tasks
