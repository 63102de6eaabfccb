// Package connectors provides access to the places documents come from.
// The corpus is a fixed local directory tree, so the only connector is the
// filesystem, which also reports changes for watch-mode ingestion.
package connectors
