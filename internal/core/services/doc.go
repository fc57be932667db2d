// Package services implements the driving port interfaces.
//
// Reconciler applies the minimal set of store writes that brings a
// document's fragments in line with its content. IndexService runs it over
// the configured roots, Scheduler drives IndexService on a poll interval
// and SearchService ranks fragments against a query. Services depend only
// on driven ports; adapters are wired in internal/bootstrap.
package services
