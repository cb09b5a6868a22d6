// plugins/stats/stats.go
package stats

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bethropolis/blockpatch/internal/event"
	"github.com/bethropolis/blockpatch/internal/patch"
	"github.com/bethropolis/blockpatch/internal/plugin"
)

// Ensure Stats implements plugin.Plugin
var _ plugin.Plugin = (*Stats)(nil)

// StageStats is the size change made by one stage.
type StageStats struct {
	Stage        string
	BytesRemoved int
	BytesAdded   int
	LinesRemoved int
	LinesAdded   int
}

// Stats tallies bytes and lines replaced per stage and reports a summary
// when the run finishes.
type Stats struct {
	api plugin.HostAPI

	mu       sync.Mutex
	enabled  bool
	perStage bool
	stages   []StageStats
}

// New creates a new instance of the Stats plugin.
func New() *Stats {
	return &Stats{enabled: true, perStage: true}
}

// Name returns the unique name of the plugin.
func (p *Stats) Name() string {
	return "stats"
}

// Initialize reads [plugins.stats] and subscribes to run events.
func (p *Stats) Initialize(api plugin.HostAPI) error {
	p.api = api

	if v, ok := api.GetPluginConfigValue(p.Name(), "enabled"); ok {
		b, isBool := v.(bool)
		if !isBool {
			return fmt.Errorf("stats: 'enabled' must be a boolean, got %T", v)
		}
		p.enabled = b
	}
	if v, ok := api.GetPluginConfigValue(p.Name(), "per_stage"); ok {
		b, isBool := v.(bool)
		if !isBool {
			return fmt.Errorf("stats: 'per_stage' must be a boolean, got %T", v)
		}
		p.perStage = b
	}
	if !p.enabled {
		return nil
	}

	api.SubscribeEvent(event.TypeStageApplied, p.onStageApplied)
	api.SubscribeEvent(event.TypeRunFinished, p.onRunFinished)
	return nil
}

// Shutdown performs cleanup (nothing needed for this plugin).
func (p *Stats) Shutdown() error {
	return nil
}

// Stages returns what has been tallied so far.
func (p *Stats) Stages() []StageStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]StageStats, len(p.stages))
	copy(out, p.stages)
	return out
}

func (p *Stats) onStageApplied(e event.Event) bool {
	data, ok := e.Data.(event.StageAppliedData)
	if !ok {
		return false
	}
	p.mu.Lock()
	p.stages = append(p.stages, Measure(data.Applied))
	p.mu.Unlock()
	return false
}

func (p *Stats) onRunFinished(e event.Event) bool {
	data, ok := e.Data.(event.RunFinishedData)
	if !ok || data.Err != nil {
		return false
	}
	stages := p.Stages()
	var total StageStats
	for _, s := range stages {
		if p.perStage {
			p.api.Report("  %-24s -%d/+%d bytes, -%d/+%d lines", s.Stage, s.BytesRemoved, s.BytesAdded, s.LinesRemoved, s.LinesAdded)
		}
		total.BytesRemoved += s.BytesRemoved
		total.BytesAdded += s.BytesAdded
		total.LinesRemoved += s.LinesRemoved
		total.LinesAdded += s.LinesAdded
	}
	verb := "patched"
	if p.api.DryRun() {
		verb = "would patch"
	}
	p.api.Report("%s %s: %d stages, -%d/+%d bytes, -%d/+%d lines",
		verb, p.api.TargetPath(), len(stages), total.BytesRemoved, total.BytesAdded, total.LinesRemoved, total.LinesAdded)
	return false
}

// Measure computes the size change of one applied stage. A line counts when
// its separator falls inside the replaced or inserted text.
func Measure(a patch.Applied) StageStats {
	removed := a.Before.Slice(a.Region)
	added := a.After.Slice(patch.Region{Start: a.Region.Start, End: a.Region.Start + a.ReplacementLen})
	return StageStats{
		Stage:        a.Stage,
		BytesRemoved: len(removed),
		BytesAdded:   len(added),
		LinesRemoved: strings.Count(removed, "\n"),
		LinesAdded:   strings.Count(added, "\n"),
	}
}
