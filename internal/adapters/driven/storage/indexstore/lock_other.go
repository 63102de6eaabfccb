//go:build !unix

package indexstore

// processAlive cannot check processes here, so every lock counts as held.
func processAlive(int) bool {
	return true
}
