// Package connectors provides document discovery for the indexer.
// The filesystem connector walks configured roots and reports which
// documents changed by content fingerprint.
package connectors
