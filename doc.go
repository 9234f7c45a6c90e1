// Package tickbook maintains a deduplicated historical price book for a
// required ticker universe, resumes interrupted backfills across
// bounded-time invocations, computes portfolio valuation and
// lifecycle-relative analytics, and keeps a rebasing performance ledger.
//
// The package is a library: persistence goes through the blob and
// kvstore packages, quotes through the PriceOracle interface, and the
// command line lives in cmd.
package tickbook
