package detection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"milguard_backend/internal/config"
	"milguard_backend/internal/model"
	"milguard_backend/pkg/logger"
	"milguard_backend/pkg/monitoring"
	"milguard_backend/pkg/tracing"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultTimeout = 20 * time.Second

// Outcome is what one fan-out produced. Failed lists providers that were
// queried but errored or timed out, sorted by name.
type Outcome struct {
	Results map[string]model.ProviderResult
	Queried []string
	Failed  []string
}

// Dispatcher queries every provider supporting a content type concurrently,
// each under its own deadline. Failed providers are dropped from the result.
type Dispatcher struct {
	providers []Provider
	timeout   atomic.Int64
}

func NewDispatcher(timeout time.Duration, providers ...Provider) *Dispatcher {
	d := &Dispatcher{providers: providers}
	d.SetTimeout(timeout)
	return d
}

// NewDispatcherFromConfig builds the providers that are enabled and have an API key.
func NewDispatcherFromConfig(cfg config.DetectionConfig) *Dispatcher {
	var providers []Provider
	if p := cfg.Providers.OpenAI; p.Enabled && p.APIKey != "" {
		providers = append(providers, NewOpenAI(p))
	}
	if p := cfg.Providers.GPTZero; p.Enabled && p.APIKey != "" {
		providers = append(providers, NewGPTZero(p))
	}
	if p := cfg.Providers.AIOrNot; p.Enabled && p.APIKey != "" {
		providers = append(providers, NewAIOrNot(p))
	}
	if len(providers) == 0 {
		logger.Log.Warn("No detection provider is configured; analyses will fail with no verdict")
	}
	return NewDispatcher(cfg.Timeout(), providers...)
}

// SetTimeout changes the per-provider deadline for subsequent calls.
func (d *Dispatcher) SetTimeout(timeout time.Duration) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	d.timeout.Store(int64(timeout))
}

func (d *Dispatcher) Timeout() time.Duration {
	return time.Duration(d.timeout.Load())
}

// ProviderNames lists the configured providers.
func (d *Dispatcher) ProviderNames() []string {
	names := make([]string, 0, len(d.providers))
	for _, p := range d.providers {
		names = append(names, p.Name())
	}
	return names
}

func (d *Dispatcher) Detect(ctx context.Context, content Content) (*Outcome, error) {
	var eligible []Provider
	for _, p := range d.providers {
		if p.Supports(content.Type) {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		return nil, fmt.Errorf("no provider supports %s content: %w", content.Type, ErrNoVerdict)
	}

	timeout := d.Timeout()
	out := &Outcome{Results: make(map[string]model.ProviderResult, len(eligible))}
	var mu sync.Mutex

	var g errgroup.Group
	for _, p := range eligible {
		p := p
		out.Queried = append(out.Queried, p.Name())
		g.Go(func() error {
			res, err := d.call(ctx, p, content, timeout)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.Failed = append(out.Failed, p.Name())
				return nil
			}
			out.Results[p.Name()] = res
			return nil
		})
	}
	// provider errors are recorded in Outcome, never returned
	_ = g.Wait()

	sort.Strings(out.Queried)
	sort.Strings(out.Failed)

	if len(out.Results) == 0 {
		return out, fmt.Errorf("all %d providers failed: %w", len(out.Queried), ErrNoVerdict)
	}
	return out, nil
}

type callResult struct {
	res model.ProviderResult
	err error
}

// call runs one provider under its deadline. The provider runs in its own
// goroutine so one that ignores its context still cannot hold up the rest.
func (d *Dispatcher) call(ctx context.Context, p Provider, content Content, timeout time.Duration) (model.ProviderResult, error) {
	name := p.Name()
	ctx, span := tracing.StartProviderSpan(ctx, name)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan callResult, 1)
	go func() {
		res, err := p.Detect(ctx, content)
		done <- callResult{res: res, err: err}
	}()

	var r callResult
	select {
	case r = <-done:
	case <-ctx.Done():
		r.err = &ProviderError{Provider: name, Err: ctx.Err()}
	}

	monitoring.ProviderDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	tracing.EndSpan(span, r.err)

	outcome := "ok"
	if r.err != nil {
		outcome = "error"
		if errors.Is(r.err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		logger.Log.Warn("Detection provider failed",
			zap.String("provider", name),
			zap.String("outcome", outcome),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(r.err))
	}
	monitoring.ProviderRequests.WithLabelValues(name, outcome).Inc()
	return r.res, r.err
}
