package provider

import "github.com/jengzang/pathtrack-backend-go/internal/tracking"

// Provider is the interface for location sources.
type Provider interface {
	Name() string
	Connect() error
	Close() error
	// Read blocks until the next fix is available. It returns io.EOF when a
	// finite source (a replay file) is exhausted.
	Read() (tracking.LocationFix, error)
}
