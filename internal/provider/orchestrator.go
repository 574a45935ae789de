package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"decision-eval/backend/internal/metrics"
)

// ErrNoProviders indicates zero adapters could be registered. This is a fatal
// configuration failure, not a per-request condition.
var ErrNoProviders = errors.New("no completion providers available: check API keys")

// ErrUnknownProvider indicates an administrative operation named an
// unregistered adapter.
var ErrUnknownProvider = errors.New("provider not registered")

// ExhaustedError reports that every adapter in the try order failed. It
// carries the adapters attempted and the last error seen.
type ExhaustedError struct {
	Attempted []string
	Last      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all completion providers failed (tried %s): %v",
		strings.Join(e.Attempted, ", "), e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Orchestrator owns a prioritized registry of adapters and walks them in
// order until one succeeds. Attempts are strictly sequential per request.
type Orchestrator struct {
	mu        sync.RWMutex
	providers map[string]Completer
	order     []string
	primary   string
	timeout   time.Duration
}

// OrchestratorConfig wires backend credentials and failover behavior.
type OrchestratorConfig struct {
	Mistral  Config
	Gemini   Config
	DeepSeek Config
	Primary  string
	// Timeout bounds each individual provider attempt so an unresponsive
	// backend cannot hold the retry chain. Zero disables the bound.
	Timeout time.Duration
}

// NewOrchestrator registers every adapter whose credentials are present,
// skipping those without. Zero registered adapters is a fatal error.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	o := &Orchestrator{
		providers: make(map[string]Completer),
		timeout:   cfg.Timeout,
	}

	builders := []struct {
		name  string
		build func() (Completer, error)
	}{
		{"mistral", func() (Completer, error) { return NewMistral(cfg.Mistral) }},
		{"gemini", func() (Completer, error) { return NewGemini(cfg.Gemini) }},
		{"deepseek", func() (Completer, error) { return NewDeepSeek(cfg.DeepSeek) }},
	}
	for _, b := range builders {
		adapter, err := b.build()
		if errors.Is(err, ErrDisabled) {
			logrus.WithField("provider", b.name).Info("completion provider disabled, skipping")
			continue
		}
		if err != nil {
			logrus.WithError(err).WithField("provider", b.name).Warn("completion provider failed to initialize, skipping")
			continue
		}
		o.register(adapter)
	}

	if len(o.order) == 0 {
		return nil, ErrNoProviders
	}

	primary := strings.TrimSpace(cfg.Primary)
	if _, ok := o.providers[primary]; !ok {
		if primary != "" {
			logrus.WithField("provider", primary).Warn("configured primary provider not available, using first registered")
		}
		primary = o.order[0]
	}
	o.primary = primary

	logrus.WithFields(logrus.Fields{
		"providers": o.order,
		"primary":   o.primary,
	}).Info("completion orchestrator ready")
	return o, nil
}

// NewOrchestratorWith registers pre-built adapters in the given order. The
// first adapter becomes the primary. Intended for wiring tests and embedders
// that construct their own Completers.
func NewOrchestratorWith(timeout time.Duration, completers ...Completer) (*Orchestrator, error) {
	o := &Orchestrator{
		providers: make(map[string]Completer),
		timeout:   timeout,
	}
	for _, c := range completers {
		if c == nil {
			continue
		}
		o.register(c)
	}
	if len(o.order) == 0 {
		return nil, ErrNoProviders
	}
	o.primary = o.order[0]
	return o, nil
}

func (o *Orchestrator) register(c Completer) {
	name := c.Name()
	if _, exists := o.providers[name]; exists {
		return
	}
	o.providers[name] = c
	o.order = append(o.order, name)
}

// Complete tries adapters in order until one succeeds and returns the text
// along with the name of the adapter that produced it. When override names a
// registered adapter, only that adapter is tried; an unregistered override is
// ignored and the normal failover order applies.
func (o *Orchestrator) Complete(ctx context.Context, messages []Message, temperature float32, override string) (string, string, error) {
	order := o.tryOrder(override)

	var lastErr error
	attempted := make([]string, 0, len(order))
	for _, name := range order {
		o.mu.RLock()
		adapter := o.providers[name]
		o.mu.RUnlock()

		text, err := o.attempt(ctx, adapter, messages, temperature)
		attempted = append(attempted, name)
		if err != nil {
			lastErr = err
			metrics.ProviderCalls.WithLabelValues(name, "error").Inc()
			logrus.WithError(err).WithField("provider", name).Warn("completion provider failed, trying next")
			continue
		}
		metrics.ProviderCalls.WithLabelValues(name, "success").Inc()
		return text, name, nil
	}

	return "", "", &ExhaustedError{Attempted: attempted, Last: lastErr}
}

func (o *Orchestrator) attempt(ctx context.Context, adapter Completer, messages []Message, temperature float32) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	return adapter.Complete(ctx, messages, temperature)
}

func (o *Orchestrator) tryOrder(override string) []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	override = strings.TrimSpace(override)
	if override != "" {
		if _, ok := o.providers[override]; ok {
			return []string{override}
		}
	}

	order := make([]string, 0, len(o.order))
	order = append(order, o.primary)
	for _, name := range o.order {
		if name != o.primary {
			order = append(order, name)
		}
	}
	return order
}

// SwitchPrimary designates a different registered adapter as the primary.
// Caller-side tier checks restrict who may invoke this.
func (o *Orchestrator) SwitchPrimary(name string) error {
	name = strings.TrimSpace(name)
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.providers[name]; !ok {
		return fmt.Errorf("%q: %w", name, ErrUnknownProvider)
	}
	o.primary = name
	logrus.WithField("provider", name).Info("primary completion provider switched")
	return nil
}

// Primary returns the current primary adapter name.
func (o *Orchestrator) Primary() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.primary
}

// Names lists registered adapters in registration order.
func (o *Orchestrator) Names() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]string{}, o.order...)
}

// AllStats snapshots usage statistics for every registered adapter.
func (o *Orchestrator) AllStats() map[string]Stats {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make(map[string]Stats, len(o.providers))
	for name, adapter := range o.providers {
		out[name] = adapter.Stats()
	}
	return out
}
