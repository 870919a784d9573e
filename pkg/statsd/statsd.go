// Package statsd is a helper package that wraps some common statsd methods.
// It hides the datadog dependency so if we decide to migrate away from datadog in the future,
// we only need to edit this single file.
package statsd

import (
	"time"

	ddstatsd "github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

var client ddstatsd.ClientInterface = &ddstatsd.NoOpClient{}

func Client() ddstatsd.ClientInterface {
	return client
}

// EmitFrameStat emits the time elapsed since start for the given frame stage.
func EmitFrameStat(start time.Time, stage string) {
	duration := time.Since(start)
	err := Client().Timing("frame", duration, []string{stage}, 1)
	if err != nil {
		log.Logger.Warn().Msgf("failed to emit frame stat: %v", err)
	}
}

// EmitWaveStat emits the time elapsed since start for a single scheduling wave.
func EmitWaveStat(start time.Time, wave int) {
	duration := time.Since(start)
	err := Client().Timing("wave", duration, []string{"wave"}, 1)
	if err != nil {
		log.Logger.Warn().Int("wave", wave).Msgf("failed to emit wave stat: %v", err)
	}
}

func Init(address string, tags []string) error {
	if address == "" {
		return eris.New("address must not be empty")
	}
	opts := []ddstatsd.Option{
		// The statsd namespace is the prefix of all metrics
		ddstatsd.WithNamespace("charcoal"),
	}
	if len(tags) > 0 {
		opts = append(opts, ddstatsd.WithTags(tags))
	}

	newClient, err := ddstatsd.New(address, opts...)
	if err != nil {
		return err
	}
	client = newClient
	return nil
}
