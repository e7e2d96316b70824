// Package pipeline wires the message source, filter, pagination bounds, and
// export sinks into a single sequential run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"tg_export/internal/filter"
	"tg_export/internal/model"
	"tg_export/internal/sink"
	"tg_export/internal/source"
)

// Options tunes a run.
type Options struct {
	// DryRun computes the filtered set and a preview without opening any
	// sink or touching any external system.
	DryRun bool
}

// Pipeline executes one export run. It is single-use: Run may be called
// exactly once. Messages flow strictly one at a time in fetch order; every
// accepted message is offered to every sink exactly once, regardless of
// other sinks' outcomes.
type Pipeline struct {
	src    source.Source
	spec   *filter.Spec
	bounds Bounds
	sinks  []sink.Sink
	opts   Options
	log    *slog.Logger

	state State
	ran   bool
}

// pathed is implemented by sinks bound to a local file path.
type pathed interface {
	Path() string
}

// New validates the run configuration and builds a pipeline.
func New(src source.Source, spec *filter.Spec, bounds Bounds, sinks []sink.Sink, opts Options, log *slog.Logger) (*Pipeline, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if len(sinks) == 0 && !opts.DryRun {
		return nil, fmt.Errorf("%w: no export targets and dry-run is off", ErrConfiguration)
	}
	if opts.DryRun {
		sinks = nil
	}

	paths := map[string]string{}
	for _, s := range sinks {
		p, ok := s.(pathed)
		if !ok {
			continue
		}
		if prev, dup := paths[p.Path()]; dup {
			return nil, fmt.Errorf("%w: targets %s and %s share path %s", ErrConfiguration, prev, s.Name(), p.Path())
		}
		paths[p.Path()] = s.Name()
	}

	return &Pipeline{
		src:    src,
		spec:   spec,
		bounds: bounds,
		sinks:  sinks,
		opts:   opts,
		log:    log,
		state:  StateIdle,
	}, nil
}

// Run executes the export and returns the accumulated result. A fatal
// source error returns the partial result together with an error wrapping
// ErrSourceUnavailable; per-message write failures are recorded in the
// result and never abort the run. Cancelling ctx between messages ends the
// run early with whatever was accumulated.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if p.ran {
		return nil, fmt.Errorf("%w: pipeline is single-use", ErrConfiguration)
	}
	p.ran = true

	names := make([]string, 0, len(p.sinks))
	for _, s := range p.sinks {
		names = append(names, s.Name())
	}
	res := newResult(names)

	// Sinks are released on every exit path, including a failure while
	// opening a later sink and fatal source errors.
	opened, err := p.openSinks(ctx)
	defer p.closeSinks(opened)
	if err != nil {
		res.State = StateFailed
		p.state = StateFailed
		return res, err
	}

	if err := p.process(ctx, res); err != nil {
		p.transition(StateFailed)
		res.State = StateFailed
		return res, err
	}

	p.transition(StateSummarizing)
	p.transition(StateDone)
	res.State = StateDone
	return res, nil
}

func (p *Pipeline) process(ctx context.Context, res *Result) error {
	p.transition(StateFetching)

	accepted := 0 // filter-accepted inside the date window, pre-skip
	for {
		if ctx.Err() != nil {
			p.log.Info("run interrupted, summarizing partial result")
			return nil
		}

		msg, ok, err := p.src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.log.Info("run interrupted, summarizing partial result")
				return nil
			}
			return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		if !ok {
			return nil
		}
		res.Fetched++
		if res.Fetched%100 == 0 {
			p.log.Info("scanning", "fetched", res.Fetched, "matched", res.Matched)
		}

		// The source is newest-first, so the first message older than the
		// window's lower bound ends the fetch.
		if p.bounds.PastWindow(msg.Timestamp) {
			return nil
		}
		if !p.bounds.Contains(msg.Timestamp) {
			continue
		}
		if !p.spec.Match(msg) {
			continue
		}
		accepted++
		if accepted <= p.bounds.Skip {
			continue
		}

		res.Matched++
		if p.opts.DryRun {
			res.Preview = append(res.Preview, msg)
		} else {
			p.transition(StateExporting)
			p.export(ctx, res, msg)
			p.transition(StateFetching)
		}

		if p.bounds.Limit > 0 && res.Matched >= p.bounds.Limit {
			return nil
		}
	}
}

// export offers one message to every sink. A failing sink never prevents
// the remaining sinks from seeing the message.
func (p *Pipeline) export(ctx context.Context, res *Result, msg model.Message) {
	for _, s := range p.sinks {
		stats := res.Targets[s.Name()]
		outcome, err := s.Write(ctx, msg)
		switch {
		case err != nil:
			stats.Failed++
			res.Failures = append(res.Failures, Failure{MessageID: msg.ID, Target: s.Name(), Err: err})
			p.log.Warn("write failed", "target", s.Name(), "message_id", msg.ID, "error", err)
		case outcome == sink.Skipped:
			stats.Skipped++
			p.log.Debug("write skipped", "target", s.Name(), "message_id", msg.ID)
		default:
			stats.Written++
			p.log.Debug("written", "target", s.Name(), "message_id", msg.ID)
		}
	}
}

// openSinks opens targets one at a time and returns the ones that opened,
// so a failure partway through still leaves the opened prefix closable.
func (p *Pipeline) openSinks(ctx context.Context) ([]sink.Sink, error) {
	var opened []sink.Sink
	for _, s := range p.sinks {
		if err := s.Open(ctx); err != nil {
			return opened, fmt.Errorf("open target %s: %w", s.Name(), err)
		}
		opened = append(opened, s)
	}
	return opened, nil
}

func (p *Pipeline) closeSinks(sinks []sink.Sink) {
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			p.log.Error("close target", "target", s.Name(), "error", err)
		}
	}
}

func (p *Pipeline) transition(next State) {
	if p.state == next {
		return
	}
	p.log.Debug("state change", "from", string(p.state), "to", string(next))
	p.state = next
}
