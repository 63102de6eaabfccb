// Package file provides filesystem-backed implementations of driven ports.
//
// Adapters:
//   - ConfigStore: TOML configuration with dot-separated keys
//   - PromptStore: editable prompt templates with built-in defaults
//   - LexiconFile: YAML lookup tables for spec keywords, refusal phrases and variants
//   - LoadDataset: YAML evaluation questions
package file
