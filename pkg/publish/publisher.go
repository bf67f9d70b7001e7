package publish

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/EHRI/rspub-core/pkg/config"
	"github.com/EHRI/rspub-core/pkg/gate"
	"github.com/EHRI/rspub-core/pkg/observe"
	"github.com/EHRI/rspub-core/pkg/resource"
	"github.com/EHRI/rspub-core/pkg/scan"
	"github.com/EHRI/rspub-core/pkg/sitemap"
	"github.com/EHRI/rspub-core/pkg/store"
)

// Options configures a Publisher.
type Options struct {
	// Parameters is the validated publication configuration. Required.
	Parameters *config.Parameters

	// Store holds the sitemap documents. Defaults to a DirStore on the
	// metadata directory.
	Store store.Store

	// Observer receives run events and confirmation requests.
	Observer observe.Observer

	// Gate decides which files belong to the publication. Defaults to
	// the standard gate built from the parameters.
	Gate gate.Predicate

	// Selector narrows the gate and provides scan roots when Execute
	// is called without any.
	Selector *scan.Selector

	// StartNew forces a fresh snapshot regardless of strategy.
	StartNew bool

	// Now is the time source. Defaults to time.Now.
	Now func() time.Time
}

// Publisher runs publication executions against one metadata
// directory.
type Publisher struct {
	params   *config.Parameters
	st       store.Store
	obs      observe.Observer
	accept   gate.Predicate
	selector *scan.Selector
	startNew bool
	now      func() time.Time
}

// New creates a Publisher.
func New(opts Options) (*Publisher, error) {
	if opts.Parameters == nil {
		return nil, errors.New("parameters are required")
	}

	p := &Publisher{
		params:   opts.Parameters,
		st:       opts.Store,
		obs:      opts.Observer,
		accept:   opts.Gate,
		selector: opts.Selector,
		startNew: opts.StartNew,
		now:      opts.Now,
	}
	if p.st == nil {
		p.st = store.NewDirStore(opts.Parameters.AbsMetadataDir())
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p, nil
}

// Report summarizes one execution.
type Report struct {
	RunID      uuid.UUID
	Strategy   config.Strategy // the strategy actually executed
	StartedAt  time.Time
	FinishedAt time.Time

	// Pages are the list documents this run produced. Documents is
	// everything the run finished, pages plus indexes, capability
	// list and description, in completion order.
	Pages     []sitemap.Descriptor
	Documents []sitemap.Descriptor

	// Counts summarizes the reconciliation of a changelist run. Nil
	// for snapshot runs.
	Counts *observe.ChangeCounts
}

// Execute runs one publication: scan the roots, produce documents per
// the strategy, and weave capability list and description. Without a
// snapshot in the store the strategy falls back to a fresh snapshot.
// Concurrent executions against the same metadata directory are
// serialized.
func (p *Publisher) Execute(ctx context.Context, roots []string) (*Report, error) {
	logger := zerolog.Ctx(ctx)

	unlock := store.Acquire(p.params.AbsMetadataDir())
	defer unlock()

	runStart := p.now().UTC().Truncate(time.Second)
	runID := uuid.New()
	obs := wrapRun(p.obs, runID)

	e := &executor{
		params:   p.params,
		st:       p.st,
		obs:      obs,
		runID:    runID,
		runStart: runStart,
		now:      p.now,
	}

	names, err := p.st.Names(ctx)
	if err != nil {
		return nil, errors.Errorf("listing store: %w", err)
	}

	// A publication always starts with a snapshot.
	strategy := p.params.Strategy
	if p.startNew || len(pageNames(names, sitemap.CapabilityResourceList)) == 0 {
		strategy = config.StrategyResourceList
	}

	logger.Info().
		Str("run_id", runID.String()).
		Str("strategy", string(strategy)).
		Bool("dry_run", p.params.DryRun).
		Msg("starting execution")
	e.inform(ctx, observe.Event{Kind: observe.KindExecutionStart, Strategy: string(strategy)})

	scanner := &scan.Scanner{
		Builder:  resource.FileBuilder{URLPrefix: p.params.URLPrefix, Root: p.params.ResourceDir},
		Accept:   p.gate(ctx),
		Observer: obs,
	}

	var (
		pages  []sitemap.Descriptor
		counts *observe.ChangeCounts
	)

	switch strategy {
	case config.StrategyResourceList:
		if !p.params.DryRun {
			if err := e.clearStore(ctx); err != nil {
				return nil, err
			}
		}
		scanned, err := scanner.Scan(ctx, p.roots(roots))
		if err != nil {
			return nil, err
		}
		pages, err = e.generateResourceList(ctx, scanned)
		if err != nil {
			return nil, err
		}
		runEnd := p.now().UTC().Truncate(time.Second)
		if _, err := e.createResourceListIndex(ctx, pages, runEnd); err != nil {
			return nil, err
		}

	case config.StrategyNewChangeList, config.StrategyIncChangeList:
		scanned, err := scanner.Scan(ctx, p.roots(roots))
		if err != nil {
			return nil, err
		}
		pages, counts, err = e.executeChangeList(ctx, strategy, scanned)
		if err != nil {
			return nil, err
		}

	default:
		return nil, errors.Errorf("strategy not implemented: %s", strategy)
	}

	capabilityList, err := e.createCapabilityList(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := e.updateDescription(ctx, capabilityList.URI); err != nil {
		return nil, err
	}

	e.inform(ctx, observe.Event{Kind: observe.KindExecutionEnd, Count: len(pages), Counts: counts})
	logger.Info().
		Str("run_id", runID.String()).
		Int("pages", len(pages)).
		Int("documents", len(e.documents)).
		Msg("execution done")

	return &Report{
		RunID:      runID,
		Strategy:   strategy,
		StartedAt:  runStart,
		FinishedAt: p.now().UTC().Truncate(time.Second),
		Pages:      pages,
		Documents:  e.documents,
		Counts:     counts,
	}, nil
}

// roots returns the scan roots for one execution: explicit roots win,
// then the selector, then the resource directory.
func (p *Publisher) roots(roots []string) []string {
	if len(roots) > 0 {
		return roots
	}
	if p.selector != nil {
		return p.selector.Roots(p.params.ResourceDir)
	}
	return []string{p.params.ResourceDir}
}

// gate returns the accept predicate for one execution.
func (p *Publisher) gate(ctx context.Context) gate.Predicate {
	accept := p.accept
	if accept == nil {
		accept = gate.Compose(ctx, gate.DefaultBuilder{
			ResourceDir:     p.params.ResourceDir,
			MetadataDir:     p.params.AbsMetadataDir(),
			DescriptionPath: p.params.AbsDescriptionPath(),
			PluginDir:       p.params.PluginDir,
			ExcludeGlobs:    p.params.ExcludeGlobs,
		})
	}
	if p.selector != nil {
		accept = p.selector.Apply(accept)
	}
	return accept
}

// runObserver stamps the run id on every event passing through.
type runObserver struct {
	obs   observe.Observer
	runID uuid.UUID
}

func wrapRun(obs observe.Observer, runID uuid.UUID) observe.Observer {
	if obs == nil {
		return nil
	}
	return runObserver{obs: obs, runID: runID}
}

func (r runObserver) Inform(ctx context.Context, ev observe.Event) {
	ev.RunID = r.runID
	r.obs.Inform(ctx, ev)
}

func (r runObserver) Confirm(ctx context.Context, ev observe.Event) bool {
	ev.RunID = r.runID
	return r.obs.Confirm(ctx, ev)
}
