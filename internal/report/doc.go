// Package report defines the finished payout run handed to output sinks and
// the sinks that ship with pmpayout.
//
// A Run carries the sorted aggregates, units, and exceptions produced by the
// pipeline plus run statistics. Sinks own presentation: JSONFile writes one
// report document per date range, Multi fans a run out to several sinks, and
// the store package persists runs to SQLite.
package report
