package plugin

import (
	"errors"
	"testing"

	"github.com/bethropolis/blockpatch/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlugin struct {
	name    string
	initErr error
	calls   *[]string
}

func (p *fakePlugin) Name() string { return p.name }

func (p *fakePlugin) Initialize(HostAPI) error {
	*p.calls = append(*p.calls, "init:"+p.name)
	return p.initErr
}

func (p *fakePlugin) Shutdown() error {
	*p.calls = append(*p.calls, "shutdown:"+p.name)
	return nil
}

type nopAPI struct{}

func (nopAPI) TargetPath() string                                      { return "" }
func (nopAPI) DryRun() bool                                            { return false }
func (nopAPI) DispatchEvent(event.Type, interface{})                   {}
func (nopAPI) SubscribeEvent(event.Type, event.Handler)                {}
func (nopAPI) Report(string, ...interface{})                           {}
func (nopAPI) GetPluginConfigValue(string, string) (interface{}, bool) { return nil, false }

func TestManagerLifecycle(t *testing.T) {
	var calls []string
	m := NewManager()
	require.NoError(t, m.Register(&fakePlugin{name: "b", calls: &calls}))
	require.NoError(t, m.Register(&fakePlugin{name: "broken", initErr: errors.New("boom"), calls: &calls}))
	require.NoError(t, m.Register(&fakePlugin{name: "a", calls: &calls}))

	m.InitializePlugins(nopAPI{})
	m.ShutdownPlugins()

	assert.Equal(t, []string{"init:b", "init:broken", "init:a", "shutdown:b", "shutdown:a"}, calls)
	_, ok := m.GetPlugin("broken")
	assert.False(t, ok, "failed plugin is unregistered")
	_, ok = m.GetPlugin("a")
	assert.True(t, ok)
}

func TestRegisterRejectsDuplicatesAndEmptyNames(t *testing.T) {
	var calls []string
	m := NewManager()
	require.NoError(t, m.Register(&fakePlugin{name: "x", calls: &calls}))
	assert.Error(t, m.Register(&fakePlugin{name: "x", calls: &calls}))
	assert.Error(t, m.Register(&fakePlugin{name: "", calls: &calls}))
}
