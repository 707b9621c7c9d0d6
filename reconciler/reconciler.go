package reconciler

import (
	"context"

	"go.uber.org/zap"

	"github.com/sapslaj/do-dyndns/address"
	"github.com/sapslaj/do-dyndns/pkg/utils"
	"github.com/sapslaj/do-dyndns/provider"
	"github.com/sapslaj/do-dyndns/resolver"
)

// Target is the immutable description of the records being managed: one
// domain, one subdomain label, one desired TTL. It is built once at startup
// and shared by every pass.
type Target struct {
	// The domain registered with the provider
	Domain string
	// The record label, "@" for the apex
	Subdomain string
	// Desired record TTL in seconds
	TTL int64
}

type OutcomeKind string

const (
	OutcomeNoOp    OutcomeKind = "noop"
	OutcomeCreated OutcomeKind = "created"
	OutcomeUpdated OutcomeKind = "updated"
	OutcomeFailed  OutcomeKind = "failed"
)

// Outcome is the result of reconciling one address family in one pass.
type Outcome struct {
	Family address.Family
	Kind   OutcomeKind
	// The resolved public address, when resolution succeeded
	Address string
	// The record that was created or updated (nil for NoOp/Failed)
	Record *provider.Record
	// The failure, for OutcomeFailed
	Err error
}

// Reconciler compares the current public address against the remote record
// for each enabled family and applies the minimal change. It holds no state
// between passes; every call re-resolves the address and re-lists the
// remote records.
type Reconciler struct {
	Resolver resolver.Resolver
	Provider provider.Provider
	Target   Target
	// When set, decisions are computed and logged but no mutating call is
	// made.
	DryRun bool
	Logger *zap.Logger
}

// Reconcile runs one pass over the given families, returning one Outcome per
// family. A non-nil error is fatal (authorization failure) and means the
// caller should stop scheduling further passes; all other failures surface
// as OutcomeFailed and leave the remaining families unaffected.
func (r *Reconciler) Reconcile(ctx context.Context, families []address.Family) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(families))
	for _, family := range families {
		outcome, err := r.reconcileFamily(ctx, family)
		outcomes = append(outcomes, outcome)
		if err != nil {
			return outcomes, err
		}
	}
	return outcomes, nil
}

func (r *Reconciler) reconcileFamily(ctx context.Context, family address.Family) (Outcome, error) {
	logger := r.Logger.Sugar().With(
		"family", family,
		"domain", r.Target.Domain,
		"subdomain", r.Target.Subdomain,
	)

	addr, err := r.Resolver.Resolve(ctx, family)
	if err != nil {
		logger.Errorw("could not resolve public address", "err", err)
		return Outcome{Family: family, Kind: OutcomeFailed, Err: err}, nil
	}
	logger = logger.With("address", addr.Address)
	logger.Infow("resolved current public address")

	records, err := r.Provider.ListRecords(ctx, r.Target.Domain)
	if err != nil {
		logger.Errorw("could not list records", "err", err)
		if provider.IsAuthError(err) {
			return Outcome{Family: family, Kind: OutcomeFailed, Address: addr.Address, Err: err}, err
		}
		return Outcome{Family: family, Kind: OutcomeFailed, Address: addr.Address, Err: err}, nil
	}

	recordType := family.RecordType()
	matches := utils.Filter(func(record provider.Record) bool {
		return record.Type == recordType && record.Name == r.Target.Subdomain
	}, records)

	if len(matches) == 0 {
		return r.create(ctx, logger, family, addr)
	}
	if len(matches) > 1 {
		logger.Warnw(
			"more than one record matches, using the first",
			"type", recordType,
			"matches", len(matches),
		)
	}
	return r.update(ctx, logger, family, addr, matches[0])
}

func (r *Reconciler) create(
	ctx context.Context,
	logger *zap.SugaredLogger,
	family address.Family,
	addr address.PublicAddress,
) (Outcome, error) {
	recordType := family.RecordType()
	if r.DryRun {
		logger.Infow(
			"would create record",
			"type", recordType,
			"data", addr.Address,
			"ttl", r.Target.TTL,
		)
		return Outcome{Family: family, Kind: OutcomeNoOp, Address: addr.Address}, nil
	}
	record, err := r.Provider.CreateRecord(
		ctx,
		r.Target.Domain,
		recordType,
		r.Target.Subdomain,
		addr.Address,
		r.Target.TTL,
	)
	if err != nil {
		logger.Errorw("could not create record", "type", recordType, "err", err)
		if provider.IsAuthError(err) {
			return Outcome{Family: family, Kind: OutcomeFailed, Address: addr.Address, Err: err}, err
		}
		return Outcome{Family: family, Kind: OutcomeFailed, Address: addr.Address, Err: err}, nil
	}
	logger.Infow("created record", "type", recordType, "id", record.ID, "ttl", record.TTL)
	return Outcome{Family: family, Kind: OutcomeCreated, Address: addr.Address, Record: &record}, nil
}

func (r *Reconciler) update(
	ctx context.Context,
	logger *zap.SugaredLogger,
	family address.Family,
	addr address.PublicAddress,
	existing provider.Record,
) (Outcome, error) {
	// A changed TTL alone is enough to trigger an update.
	if existing.Data == addr.Address && existing.TTL == r.Target.TTL {
		logger.Infow("record is up to date", "type", existing.Type, "id", existing.ID)
		return Outcome{Family: family, Kind: OutcomeNoOp, Address: addr.Address}, nil
	}
	if r.DryRun {
		logger.Infow(
			"would update record",
			"type", existing.Type,
			"id", existing.ID,
			"old_data", existing.Data,
			"data", addr.Address,
			"old_ttl", existing.TTL,
			"ttl", r.Target.TTL,
		)
		return Outcome{Family: family, Kind: OutcomeNoOp, Address: addr.Address}, nil
	}
	record, err := r.Provider.UpdateRecord(ctx, r.Target.Domain, existing.ID, addr.Address, r.Target.TTL)
	if err != nil {
		logger.Errorw("could not update record", "type", existing.Type, "id", existing.ID, "err", err)
		if provider.IsAuthError(err) {
			return Outcome{Family: family, Kind: OutcomeFailed, Address: addr.Address, Err: err}, err
		}
		return Outcome{Family: family, Kind: OutcomeFailed, Address: addr.Address, Err: err}, nil
	}
	logger.Infow("updated record", "type", record.Type, "id", record.ID, "ttl", record.TTL)
	return Outcome{Family: family, Kind: OutcomeUpdated, Address: addr.Address, Record: &record}, nil
}
