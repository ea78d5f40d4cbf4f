package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"

	"bazachat/internal/metrics"
	"bazachat/internal/models"
)

// Drain resends every persisted envelope in enqueue order,
// best-effort: an individual failure keeps that envelope (and its
// position) while the rest are still attempted; only the failed subset
// is persisted back, and a fully successful pass clears the queue.
// Drained sends never touch the timeline.
//
// Concurrent calls coalesce: a drain already in progress makes this a
// no-op.
func (p *Pipeline) Drain(ctx context.Context) error {
	if !p.draining.CompareAndSwap(false, true) {
		return nil
	}
	defer p.draining.Store(false)

	envs, err := p.queue.Load(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load unsent queue")
		return err
	}
	if len(envs) == 0 {
		return nil
	}

	metrics.DrainRuns.Inc()
	log.Info().Int("queued", len(envs)).Msg("Draining unsent messages")

	var failed []models.Envelope
	for _, env := range envs {
		if _, err := p.sender.Send(ctx, env.Request()); err != nil {
			env.Attempts++
			if p.maxDrainAttempts > 0 && env.Attempts >= p.maxDrainAttempts {
				log.Error().
					Err(err).
					Str("recipientID", env.RecipientID).
					Int("attempts", env.Attempts).
					Msg("Dropping envelope after exhausting drain attempts")
				metrics.DrainDropped.Inc()
				continue
			}
			log.Warn().Err(err).Str("recipientID", env.RecipientID).Msg("Drain resend failed, keeping envelope")
			failed = append(failed, env)
			continue
		}
		metrics.DrainDelivered.Inc()
	}

	if err := p.queue.Replace(ctx, failed); err != nil {
		log.Error().Err(err).Msg("Failed to persist drain remainder")
		return err
	}

	log.Info().Int("delivered", len(envs)-len(failed)).Int("remaining", len(failed)).Msg("Drain finished")
	return nil
}
