// internal/app/host_api.go
package app

import (
	"fmt"

	"github.com/bethropolis/blockpatch/internal/event"
	"github.com/bethropolis/blockpatch/internal/plugin"
)

// Ensure appHostAPI implements the plugin.HostAPI interface.
var _ plugin.HostAPI = (*appHostAPI)(nil)

// appHostAPI is the plugin-facing view of a run.
type appHostAPI struct {
	app *App
}

func newHostAPI(app *App) *appHostAPI {
	return &appHostAPI{app: app}
}

func (api *appHostAPI) TargetPath() string { return api.app.target }

func (api *appHostAPI) DryRun() bool { return api.app.opts.DryRun }

func (api *appHostAPI) DispatchEvent(eventType event.Type, data interface{}) {
	api.app.eventManager.Dispatch(eventType, data)
}

func (api *appHostAPI) SubscribeEvent(eventType event.Type, handler event.Handler) {
	api.app.eventManager.Subscribe(eventType, handler)
}

func (api *appHostAPI) Report(format string, args ...interface{}) {
	fmt.Fprintf(api.app.opts.Report, format+"\n", args...)
}

func (api *appHostAPI) GetPluginConfigValue(pluginName, key string) (interface{}, bool) {
	return api.app.cfg.PluginValue(pluginName, key)
}
