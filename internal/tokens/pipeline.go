package tokens

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mtlprog/walletboard/internal/domain"
	"github.com/mtlprog/walletboard/internal/filter"
)

// ErrClosed is returned for events sent after the pipeline stopped.
var ErrClosed = errors.New("pipeline closed")

const subscriberBuffer = 16

// HiddenStore persists per-wallet hidden token flags.
type HiddenStore interface {
	SetHidden(ctx context.Context, wallet string, id domain.TokenID, hidden bool) error
	Hidden(ctx context.Context, wallet string) (map[string]bool, error)
}

// event mutates the model. When ok is false nothing is published. done, if
// set, is closed once the update has been published.
type event struct {
	apply func(m *Model) (u Update, ok bool)
	done  chan struct{}
}

// Pipeline owns a Model on a single goroutine. Inputs are queued as events,
// each triggering a full recompute whose Update is fanned out to subscribers.
type Pipeline struct {
	model  *Model
	store  HiddenStore
	wallet string

	events  chan event
	refresh chan struct{}
	done    chan struct{}

	mu      sync.Mutex
	subs    map[int]chan Update
	nextSub int
	current Snapshot
	closed  bool
}

// NewPipeline creates a pipeline for one wallet.
func NewPipeline(model *Model, store HiddenStore, wallet string) *Pipeline {
	if model == nil {
		panic("tokens.NewPipeline: model is nil")
	}
	if store == nil {
		panic("tokens.NewPipeline: store is nil")
	}
	return &Pipeline{
		model:   model,
		store:   store,
		wallet:  wallet,
		events:  make(chan event),
		refresh: make(chan struct{}, 1),
		done:    make(chan struct{}),
		subs:    make(map[int]chan Update),
		current: model.Snapshot(),
	}
}

// Wallet returns the address this pipeline serves.
func (p *Pipeline) Wallet() string {
	return p.wallet
}

// Run loads the hidden set and processes events until ctx is cancelled.
// On exit every subscriber channel is closed.
func (p *Pipeline) Run(ctx context.Context) error {
	defer p.shutdown()

	hidden, err := p.store.Hidden(ctx, p.wallet)
	if err != nil {
		return fmt.Errorf("loading hidden tokens: %w", err)
	}
	p.publish(p.model.SetHiddenSet(hidden))
	slog.Info("tokens pipeline started", "wallet", p.wallet, "hidden", len(hidden))

	for {
		select {
		case <-ctx.Done():
			slog.Info("tokens pipeline stopped", "wallet", p.wallet)
			return nil
		case ev := <-p.events:
			if u, ok := ev.apply(p.model); ok {
				p.publish(u)
			}
			if ev.done != nil {
				close(ev.done)
			}
		case <-p.refresh:
			p.publish(p.model.Refresh())
		}
	}
}

func (p *Pipeline) shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	close(p.done)
	for id, ch := range p.subs {
		close(ch)
		delete(p.subs, id)
	}
}

func (p *Pipeline) send(ctx context.Context, ev event) error {
	select {
	case p.events <- ev:
		return nil
	case <-p.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// call sends an event and waits until its update is published.
func (p *Pipeline) call(ctx context.Context, apply func(m *Model) (Update, bool)) error {
	ev := event{apply: apply, done: make(chan struct{})}
	if err := p.send(ctx, ev); err != nil {
		return err
	}
	<-ev.done
	return nil
}

// SetTokens replaces the displayed wallet's token set.
func (p *Pipeline) SetTokens(ctx context.Context, tokens []domain.TokenViewModel) error {
	return p.call(ctx, func(m *Model) (Update, bool) { return m.SetTokens(tokens), true })
}

// SetFilter changes the active wallet filter.
func (p *Pipeline) SetFilter(ctx context.Context, f filter.WalletFilter) error {
	return p.call(ctx, func(m *Model) (Update, bool) { return m.SetFilter(f), true })
}

// SetSearchText changes the search text.
func (p *Pipeline) SetSearchText(ctx context.Context, text string) error {
	return p.call(ctx, func(m *Model) (Update, bool) { return m.SetSearchText(text), true })
}

// SetSessionCount records the number of connected wallet sessions.
func (p *Pipeline) SetSessionCount(ctx context.Context, n int) error {
	return p.call(ctx, func(m *Model) (Update, bool) { return m.SetSessionCount(n), true })
}

// ServersChanged schedules a rebuild. Safe to call from any goroutine and
// never blocks; pending rebuilds coalesce.
func (p *Pipeline) ServersChanged() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// Hide persists the hidden flag, then removes the token from the list. The
// returned index paths refer to the rows displayed before the call.
func (p *Pipeline) Hide(ctx context.Context, id domain.TokenID) ([]int, error) {
	var (
		paths []int
		err   error
	)
	callErr := p.call(ctx, func(m *Model) (Update, bool) {
		if !m.Has(id) {
			err = fmt.Errorf("hiding %s: %w", id.Key(), ErrTokenNotFound)
			return Update{}, false
		}
		if err = p.store.SetHidden(ctx, p.wallet, id, true); err != nil {
			err = fmt.Errorf("persisting hidden flag: %w", err)
			return Update{}, false
		}
		var u Update
		paths, u, err = m.Hide(id)
		return u, err == nil
	})
	if callErr != nil {
		return nil, callErr
	}
	return paths, err
}

// Unhide persists the cleared flag, then restores the token to the list.
func (p *Pipeline) Unhide(ctx context.Context, id domain.TokenID) error {
	var err error
	callErr := p.call(ctx, func(m *Model) (Update, bool) {
		if !m.Has(id) {
			err = fmt.Errorf("unhiding %s: %w", id.Key(), ErrTokenNotFound)
			return Update{}, false
		}
		if err = p.store.SetHidden(ctx, p.wallet, id, false); err != nil {
			err = fmt.Errorf("persisting hidden flag: %w", err)
			return Update{}, false
		}
		var u Update
		u, err = m.Unhide(id)
		return u, err == nil
	})
	if callErr != nil {
		return callErr
	}
	return err
}

// Current returns the last published snapshot.
func (p *Pipeline) Current() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Subscribe returns a channel of updates, starting with the current snapshot
// diffed against an empty list. A subscriber that falls behind by more than
// its buffer is dropped and its channel closed. cancel is idempotent.
func (p *Pipeline) Subscribe() (<-chan Update, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan Update, subscriberBuffer)
	if p.closed {
		close(ch)
		return ch, func() {}
	}
	ch <- Update{Snapshot: p.current, Changes: Diff(nil, p.current.Rows)}

	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if c, ok := p.subs[id]; ok {
			close(c)
			delete(p.subs, id)
		}
	}
	return ch, cancel
}

func (p *Pipeline) publish(u Update) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = u.Snapshot
	for id, ch := range p.subs {
		select {
		case ch <- u:
		default:
			slog.Warn("dropping slow subscriber", "wallet", p.wallet, "subscriber", id)
			close(ch)
			delete(p.subs, id)
		}
	}
}
