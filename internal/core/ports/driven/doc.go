// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Ingestion Interfaces
//
//   - Parser: Turns a source file into positioned text segments
//   - ParserRegistry: Selects the parser for a file extension
//   - PassageProcessor: One stage of the clean, chunk, tag pipeline
//   - EmbeddingService: Maps text to unit-length vectors
//   - IndexRepository: Builds, persists and loads index store generations
//
// # Query Interfaces
//
//   - IndexStore: A read-only snapshot supporting nearest-neighbour search
//   - VectorIndex: The search structure inside an IndexStore
//   - LLMService: The generation provider behind the grounding gate
//   - PromptStore: Prompt templates, including the grounding contract
//   - LexiconSource: Lookup tables for thresholds, boosts and refusals
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, parser, or postprocessor package
package driven
