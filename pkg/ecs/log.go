package ecs

import (
	"sort"

	"github.com/rs/zerolog"
)

// logWorld writes the world's registered component and system inventory to the logger.
// Emitted once before the first frame.
func logWorld(logger *zerolog.Logger, w *World, level zerolog.Level) {
	event := logger.WithLevel(level)

	names := make([]string, 0, len(w.registry.catalog))
	for name := range w.registry.catalog {
		names = append(names, name)
	}
	sort.Strings(names)

	componentArr := zerolog.Arr()
	for _, name := range names {
		dict := zerolog.Dict()
		dict = dict.Int("component_id", int(w.registry.catalog[name]))
		dict = dict.Str("component_name", name)
		componentArr = componentArr.Dict(dict)
	}
	event.Int("total_components", len(names)).Array("components", componentArr)

	systemArr := zerolog.Arr()
	for _, name := range w.scheduler.systemNames() {
		systemArr = systemArr.Str(name)
	}
	event.Int("total_systems", len(w.scheduler.systems)).Array("systems", systemArr)

	event.Msg("world initialized")
}

// logWaves writes the freshly built wave layout at debug level.
func logWaves(logger *zerolog.Logger, s *scheduler) {
	if logger.GetLevel() > zerolog.DebugLevel {
		return
	}

	wavesArr := zerolog.Arr()
	for waveNum, wave := range s.waves {
		waveArr := zerolog.Arr()
		for _, idx := range wave {
			waveArr = waveArr.Str(s.systems[idx].name)
		}
		dict := zerolog.Dict().Int("wave", waveNum).Array("systems", waveArr)
		wavesArr = wavesArr.Dict(dict)
	}
	logger.Debug().
		Int("total_waves", len(s.waves)).
		Array("waves", wavesArr).
		Msg("wave layout rebuilt")
}
