package adapters

import (
	"context"
	"fmt"

	"github.com/speedwagon-io/kpipublisher/internal/config"
	"github.com/speedwagon-io/kpipublisher/internal/model"
)

// StaticSource returns the same KPIs on every tick.
type StaticSource struct {
	kpis []model.Kpi
}

func NewStaticSource(kpis []model.Kpi) *StaticSource {
	return &StaticSource{kpis: append([]model.Kpi(nil), kpis...)}
}

// StaticSourceFromConfig builds a StaticSource from the static section of the
// source config.
func StaticSourceFromConfig(cfgs []config.StaticKpiConfig) (*StaticSource, error) {
	kpis := make([]model.Kpi, 0, len(cfgs))
	for _, c := range cfgs {
		unit, err := model.ParseUnit(c.Unit)
		if err != nil {
			return nil, fmt.Errorf("static kpi %q: %w", c.Name, err)
		}
		kpis = append(kpis, model.NewKpi(c.Name, unit, c.Value))
	}
	return NewStaticSource(kpis), nil
}

func (s *StaticSource) Name() string {
	return "static"
}

func (s *StaticSource) Collect(ctx context.Context) ([]model.Kpi, error) {
	return append([]model.Kpi(nil), s.kpis...), nil
}
