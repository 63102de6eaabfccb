// Package domain defines the core business entities for Kurator.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Passage: A normalised, embedded unit of retrievable document text
//   - Segment: A positioned block of text produced by a document parser
//   - RetrievalResult: A ranked passage with raw and adjusted scores
//   - AnswerRecord: The grounded answer, its citations and gate outcome
//   - Lexicon: The lookup tables driving thresholds, boosts and refusals
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
