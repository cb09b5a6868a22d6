// internal/plugin/plugin.go
package plugin

import (
	"github.com/bethropolis/blockpatch/internal/event"
)

// HostAPI defines what plugins may do during a run. Plugins observe; they
// never see or change a document before the pipeline has finished.
type HostAPI interface {
	// --- Run Information ---
	TargetPath() string
	DryRun() bool

	// --- Event Bus Interaction ---
	DispatchEvent(eventType event.Type, data interface{})
	SubscribeEvent(eventType event.Type, handler event.Handler)

	// --- Output ---
	// Report writes one line to the run's report stream (stderr by default).
	Report(format string, args ...interface{})

	// --- Configuration ---
	// GetPluginConfigValue reads a key from the [plugins.<name>] config table.
	GetPluginConfigValue(pluginName, key string) (interface{}, bool)
}

// Plugin defines the interface that all plugins must implement.
type Plugin interface {
	// Name returns the unique identifier name of the plugin.
	Name() string

	// Initialize is called once before the pipeline runs.
	// Used for reading config and subscribing to events.
	Initialize(api HostAPI) error

	// Shutdown is called once when the run is over.
	Shutdown() error
}
