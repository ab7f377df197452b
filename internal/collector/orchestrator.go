package collector

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vnbizdata/collector-cli/internal/model"
	"github.com/vnbizdata/collector-cli/internal/profile"
	"github.com/vnbizdata/collector-cli/internal/reconcile"
	"github.com/vnbizdata/collector-cli/internal/registry"
	"github.com/vnbizdata/collector-cli/internal/store"
)

// Orchestrator drives the two-source collection pipeline: page through
// the registry, look up each company on the profile site, merge, and
// store. Each company advances through a per-company state machine;
// failures are isolated to the company they occur on.
type Orchestrator struct {
	registry registry.Client
	profile  profile.Client
	store    store.Store
	strategy reconcile.Strategy

	// Concurrency is the bounded fan-out across companies within a
	// page. The profile client's shared pacer keeps secondary lookups
	// spaced out globally no matter how many workers run.
	Concurrency    int
	LookupAttempts int
}

// New builds an orchestrator with the default merge strategy.
func New(reg registry.Client, prof profile.Client, st store.Store) *Orchestrator {
	return &Orchestrator{
		registry:       reg,
		profile:        prof,
		store:          st,
		strategy:       reconcile.DefaultStrategy(),
		Concurrency:    1,
		LookupAttempts: 3,
	}
}

// WithStrategy overrides the merge strategy.
func (o *Orchestrator) WithStrategy(s reconcile.Strategy) *Orchestrator {
	o.strategy = s
	return o
}

// Run collects up to target companies matching the filters. It returns
// the records that reached the stored state together with a run report;
// per-company failures are reported, not returned as errors. The error
// return is reserved for fatal conditions: bad arguments or a registry
// that never answered. Cancellation via ctx stops the run between
// companies; records already stored stay stored.
func (o *Orchestrator) Run(ctx context.Context, filters registry.Filters, target int) ([]model.CanonicalRecord, *model.RunReport, error) {
	if filters.Industry == "" && filters.Location == "" {
		return nil, nil, eris.New("collector: at least one of industry or location filter is required")
	}
	if target <= 0 {
		return nil, nil, eris.New("collector: target must be positive")
	}

	log := zap.L().With(
		zap.String("industry", filters.Industry),
		zap.String("location", filters.Location),
		zap.Int("target", target),
	)

	run, err := o.store.CreateRun(ctx, filters.Industry, filters.Location)
	if err != nil {
		return nil, nil, eris.Wrap(err, "collector: create run")
	}
	log = log.With(zap.String("run_id", run.ID))
	log.Info("collection run started")

	report := &model.RunReport{Requested: target}
	var collected []model.CanonicalRecord

	// The registry repeats companies across page boundaries now and
	// then; each tax id counts toward the target once.
	seen := make(map[string]bool)

	pageErrors := 0
	for page := 1; len(collected) < target; page++ {
		if err := ctx.Err(); err != nil {
			log.Warn("collection run cancelled", zap.Int("page", page))
			break
		}

		result, err := o.registry.SearchPage(ctx, filters, page)
		if err != nil {
			if registry.IsMalformedResponse(err) {
				log.Warn("skipping malformed registry page",
					zap.Int("page", page), zap.Error(err))
				pageErrors++
				if pageErrors >= 3 {
					break
				}
				continue
			}
			// SourceUnavailable after retries: end the run with what
			// we have.
			log.Error("registry unavailable, ending run",
				zap.Int("page", page), zap.Error(err))
			if len(collected) == 0 {
				o.finishRun(ctx, run.ID, report, log)
				return nil, report, err
			}
			break
		}
		if len(result.Companies) == 0 {
			log.Info("registry exhausted", zap.Int("page", page))
			break
		}

		remaining := target - len(collected)
		stored := o.processPage(ctx, result.Companies, remaining, seen, report, log)
		collected = append(collected, stored...)
	}

	report.Collected = len(collected)
	o.finishRun(ctx, run.ID, report, log)

	log.Info("collection run finished",
		zap.Int("collected", report.Collected),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("degraded", report.Degraded),
	)
	return collected, report, nil
}

// processPage runs the per-company pipeline over one registry page,
// stopping once limit companies have been stored. Fan-out is bounded by
// Concurrency; the report is updated under a lock. Tax ids already in
// seen are skipped; dispatched ids are added to it. Only the dispatch
// loop touches seen, so it needs no lock.
func (o *Orchestrator) processPage(ctx context.Context, companies []model.BaseRecord, limit int, seen map[string]bool, report *model.RunReport, log *zap.Logger) []model.CanonicalRecord {
	var mu sync.Mutex
	var stored []model.CanonicalRecord

	g, gctx := errgroup.WithContext(ctx)
	workers := o.Concurrency
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for _, base := range companies {
		mu.Lock()
		full := len(stored) >= limit
		mu.Unlock()
		if full || gctx.Err() != nil {
			break
		}

		if base.TaxID == "" {
			mu.Lock()
			report.Skipped++
			mu.Unlock()
			log.Debug("skipping row without tax id", zap.String("name", base.Name))
			continue
		}
		if seen[base.TaxID] {
			mu.Lock()
			report.Skipped++
			mu.Unlock()
			log.Debug("skipping duplicate tax id", zap.String("tax_id", base.TaxID))
			continue
		}
		seen[base.TaxID] = true

		g.Go(func() error {
			mu.Lock()
			full := len(stored) >= limit
			mu.Unlock()
			if full {
				return nil
			}

			rec, failure := o.processCompany(gctx, base, log)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case failure != nil:
				report.Failed++
				report.Failures = append(report.Failures, *failure)
			case rec != nil:
				if rec.DataSource == model.DataSourcePrimary {
					report.Degraded++
				}
				if len(stored) < limit {
					stored = append(stored, *rec)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	return stored
}

// processCompany advances one company through the state machine,
// logging each transition. It returns the stored record, or a failure
// describing which stage broke.
func (o *Orchestrator) processCompany(ctx context.Context, base model.BaseRecord, log *zap.Logger) (*model.CanonicalRecord, *model.Failure) {
	clog := log.With(zap.String("tax_id", base.TaxID))
	state := model.StatePending

	state = o.transition(clog, state, model.StatePrimaryFetched)

	supp, lookupErr := o.lookupWithRetry(ctx, base.TaxID, clog)
	state = o.transition(clog, state, model.StateSecondaryAttempt)
	if lookupErr != nil {
		// Degrade: the record must still be satisfiable from the
		// registry alone.
		clog.Warn("secondary lookup exhausted, storing without supplementary data",
			zap.Error(lookupErr))
		supp = nil
	}

	rec := o.strategy.Merge(base, supp)
	state = o.transition(clog, state, model.StateReconciled)

	if err := o.store.UpsertRecord(ctx, rec); err != nil {
		o.transition(clog, state, model.StateFailed)
		clog.Error("store upsert failed", zap.Error(err))
		return nil, &model.Failure{
			TaxID: base.TaxID,
			Stage: model.StagePersistence,
			Error: err.Error(),
		}
	}
	o.transition(clog, state, model.StateStored)

	return &rec, nil
}

// lookupWithRetry attempts the secondary lookup up to LookupAttempts
// times. The profile client's pacer supplies the spacing between
// attempts. A clean not-found is returned immediately.
func (o *Orchestrator) lookupWithRetry(ctx context.Context, taxID string, log *zap.Logger) (*model.SupplementaryRecord, error) {
	attempts := o.LookupAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		supp, err := o.profile.Lookup(ctx, taxID)
		if err == nil {
			return supp, nil
		}
		if !profile.IsLookupFailed(err) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
		log.Warn("secondary lookup failed",
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return nil, lastErr
}

func (o *Orchestrator) transition(log *zap.Logger, from, to model.CompanyState) model.CompanyState {
	if !from.CanTransition(to) {
		log.Error("invalid state transition",
			zap.String("from", string(from)),
			zap.String("to", string(to)))
		return from
	}
	log.Info("state transition",
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return to
}

func (o *Orchestrator) finishRun(ctx context.Context, runID string, report *model.RunReport, log *zap.Logger) {
	// Finalize the audit row even when the run was cancelled.
	ctx = context.WithoutCancel(ctx)
	if err := o.store.FinishRun(ctx, runID, report); err != nil {
		log.Error("finish run", zap.Error(err))
	}
}
