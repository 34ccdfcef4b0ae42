// Package collector adapts a KPI source to the envelopes published per tick.
package collector

import (
	"context"
	"time"

	"github.com/speedwagon-io/kpipublisher/internal/model"
)

// Source yields the current KPI values. Returning no KPIs, or an error, means
// nothing is available for this tick.
type Source interface {
	Collect(ctx context.Context) ([]model.Kpi, error)
}

// SourceFunc lets a plain function act as a Source.
type SourceFunc func(ctx context.Context) ([]model.Kpi, error)

func (f SourceFunc) Collect(ctx context.Context) ([]model.Kpi, error) {
	return f(ctx)
}

// Name reports the name of src if it has one, "custom" otherwise.
func Name(src Source) string {
	if n, ok := src.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "custom"
}

// CollectAndEnvelope calls src exactly once. It reports false when the tick
// has to be skipped; err is the source's error in that case, if any.
func CollectAndEnvelope(ctx context.Context, clientID string, src Source, now func() time.Time) (*model.Envelope, bool, error) {
	kpis, err := src.Collect(ctx)
	if err != nil {
		return nil, false, err
	}
	if len(kpis) == 0 {
		return nil, false, nil
	}
	return model.NewEnvelope(clientID, kpis, now()), true, nil
}
