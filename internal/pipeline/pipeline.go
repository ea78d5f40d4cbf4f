// Package pipeline owns the in-memory conversation timeline and
// orchestrates message delivery: optimistic timeline insertion,
// offline short-circuiting, durable queueing of failed sends, and
// draining the queue when connectivity resumes.
package pipeline

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bazachat/internal/botclient"
	"bazachat/internal/connectivity"
	"bazachat/internal/i18n"
	"bazachat/internal/metrics"
	"bazachat/internal/models"
	"bazachat/internal/queue"
)

// IDGen produces message identifiers. Injected so tests are
// deterministic and collisions are structurally impossible.
type IDGen func() string

// Options tune a Pipeline beyond its collaborators.
type Options struct {
	// MaxDrainAttempts caps how often a queued envelope is retried
	// during drains before being dropped. Zero retries forever.
	MaxDrainAttempts int

	// DefaultLanguage selects localized strings before any submission
	// carries its own hint.
	DefaultLanguage string

	// NewID overrides the identifier generator. Defaults to UUIDs.
	NewID IDGen

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Pipeline is the message delivery core. It exclusively owns the
// timeline; the queue store exclusively owns the persisted envelopes.
type Pipeline struct {
	sender  botclient.Sender
	queue   *queue.Store
	monitor *connectivity.Monitor

	newID            IDGen
	now              func() time.Time
	maxDrainAttempts int

	mu          sync.Mutex
	timeline    []models.Message
	suggestions []string
	inflight    int
	lastHint    string

	draining atomic.Bool
}

func New(sender botclient.Sender, q *queue.Store, monitor *connectivity.Monitor, opts Options) *Pipeline {
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "en"
	}

	return &Pipeline{
		sender:           sender,
		queue:            q,
		monitor:          monitor,
		newID:            opts.NewID,
		now:              opts.Now,
		maxDrainAttempts: opts.MaxDrainAttempts,
		suggestions:      i18n.Match(opts.DefaultLanguage).QuickExamples,
		lastHint:         opts.DefaultLanguage,
	}
}

// Submit delivers one user-authored message. The user message and an
// assistant placeholder appear on the timeline immediately; delivery
// failures never propagate out, they settle the placeholder as failed
// and persist an envelope for retry. Only a blank text is rejected.
func (p *Pipeline) Submit(ctx context.Context, text, recipientID, languageHint string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ErrEmptyMessage
	}

	bundle := i18n.Match(languageHint)
	turnID := p.newID()
	createdAt := p.now()

	userMsg := models.Message{
		ID:        p.newID(),
		TurnID:    turnID,
		Role:      models.RoleUser,
		Text:      text,
		CreatedAt: createdAt,
		Status:    models.StatusSent,
	}
	placeholder := models.Message{
		ID:        p.newID(),
		TurnID:    turnID,
		Role:      models.RoleAssistant,
		Text:      bundle.Placeholder,
		CreatedAt: createdAt,
		Status:    models.StatusSending,
	}

	p.mu.Lock()
	p.timeline = append(p.timeline, userMsg, placeholder)
	p.suggestions = nil // hidden while the reply is outstanding
	p.inflight++
	p.lastHint = languageHint
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inflight--
		p.mu.Unlock()
	}()

	env := models.Envelope{RecipientID: recipientID, Text: text, LanguageHint: languageHint}

	// Known-offline short-circuit: no network round-trip, queue and
	// settle immediately.
	if !p.monitor.Reachable() {
		p.enqueue(ctx, env)
		p.settleFailed(placeholder.ID, bundle.OfflineNotice(), bundle)
		return nil
	}

	resp, err := p.sender.Send(ctx, models.ChatRequest{
		RecipientID:  recipientID,
		Message:      text,
		LanguageHint: languageHint,
	})
	if err != nil {
		log.Error().Err(err).Str("turnID", turnID).Msg("Message delivery failed")
		p.enqueue(ctx, env)
		p.settleFailed(placeholder.ID, bundle.RetryPrompt(), bundle)
		metrics.MessagesFailed.Inc()
		return nil
	}

	p.settleDelivered(placeholder.ID, turnID, resp, bundle)
	metrics.MessagesSent.Inc()
	return nil
}

// Retry re-submits the text behind a failed message as a fresh
// attempt, then prunes the old turn's failed assistant placeholder so
// the timeline shows only the latest outcome.
func (p *Pipeline) Retry(ctx context.Context, messageID, recipientID, languageHint string) error {
	p.mu.Lock()
	var text, oldTurn string
	found := false
	for _, m := range p.timeline {
		if m.ID != messageID {
			continue
		}
		oldTurn = m.TurnID
		found = true
		if m.Role == models.RoleUser {
			text = m.Text
			break
		}
		// A failed assistant placeholder retries its turn's user text.
		for _, u := range p.timeline {
			if u.TurnID == m.TurnID && u.Role == models.RoleUser {
				text = u.Text
				break
			}
		}
		break
	}
	p.mu.Unlock()

	if !found || text == "" {
		return models.ErrMessageNotFound
	}

	if err := p.Submit(ctx, text, recipientID, languageHint); err != nil {
		return err
	}

	p.mu.Lock()
	kept := p.timeline[:0]
	for _, m := range p.timeline {
		if m.TurnID == oldTurn && m.Role == models.RoleAssistant && m.Status == models.StatusFailed {
			continue
		}
		kept = append(kept, m)
	}
	p.timeline = kept
	p.mu.Unlock()
	return nil
}

// Clear empties the visible timeline and resets suggestions. The
// persisted queue is deliberately untouched: clearing what is shown
// does not revoke the delivery guarantee for unsent messages.
func (p *Pipeline) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeline = nil
	p.suggestions = i18n.Match(p.lastHint).QuickExamples
}

// Timeline returns a snapshot of the ordered timeline.
func (p *Pipeline) Timeline() []models.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Message, len(p.timeline))
	copy(out, p.timeline)
	return out
}

// Suggestions returns a snapshot of the current quick-reply list.
func (p *Pipeline) Suggestions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.suggestions))
	copy(out, p.suggestions)
	return out
}

// Busy reports whether any submission is still in flight.
func (p *Pipeline) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inflight > 0
}

// enqueue persists an envelope, logging (not propagating) persistence
// failures: losing durability for one call is degraded behavior, the
// timeline still reflects the failure to the user.
func (p *Pipeline) enqueue(ctx context.Context, env models.Envelope) {
	if err := p.queue.Enqueue(ctx, env); err != nil {
		log.Error().Err(err).Str("recipientID", env.RecipientID).Msg("Failed to persist unsent message")
		return
	}
	metrics.MessagesQueued.Inc()
}

// settleFailed marks the placeholder failed. Matching is strictly by
// identifier; a placeholder removed in the meantime (cleared timeline,
// superseded retry) leaves the timeline untouched.
func (p *Pipeline) settleFailed(placeholderID, text string, bundle *i18n.Bundle) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.timeline {
		if p.timeline[i].ID == placeholderID {
			p.timeline[i].Text = text
			p.timeline[i].Status = models.StatusFailed
			break
		}
	}
	p.suggestions = bundle.QuickExamples
}

// settleDelivered atomically replaces the placeholder with the real
// reply and derives the next suggestion list. A late response whose
// placeholder is gone is discarded.
func (p *Pipeline) settleDelivered(placeholderID, turnID string, resp *models.ChatResponse, bundle *i18n.Bundle) {
	replyText := resp.Reply
	if replyText == "" {
		replyText = bundle.NoReply
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	idx := -1
	for i := range p.timeline {
		if p.timeline[i].ID == placeholderID {
			idx = i
			break
		}
	}
	if idx < 0 {
		log.Debug().Str("turnID", turnID).Msg("Discarding reply for removed placeholder")
		return
	}

	p.timeline = append(p.timeline[:idx], p.timeline[idx+1:]...)
	p.timeline = append(p.timeline, models.Message{
		ID:        p.newID(),
		TurnID:    turnID,
		Role:      models.RoleAssistant,
		Text:      replyText,
		CreatedAt: p.now(),
		Status:    models.StatusSent,
		Options:   resp.Options,
	})
	p.suggestions = SuggestionsFor(resp, bundle.QuickExamples)
}
