// Package driving defines interfaces that external actors (CLI, HTTP, MCP, TUI)
// use to interact with core services. These are the "driving" ports in
// hexagonal architecture terminology - they drive the application.
//
// The two core operations are IngestService.Ingest ("ingest a document set")
// and AnswerService.Answer ("answer a question").
//
// Implementations of these interfaces live in internal/core/services.
package driving
