// Package parsers holds the document parsers and the registry that selects
// one by file extension. Each parser turns a file into segments positioned
// by page, paragraph, slide or structural element; normalisation and
// chunking happen later in the passage pipeline.
package parsers
