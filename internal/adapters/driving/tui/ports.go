// Package tui provides the interactive chat interface for kurator.
// It is a driving adapter: every answer comes from the query engine port.
package tui

import (
	"github.com/custodia-labs/kurator/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI needs.
type Ports struct {
	// Query answers questions and reports the serving store.
	Query driving.QueryService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
