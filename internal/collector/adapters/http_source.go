package adapters

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/speedwagon-io/kpipublisher/internal/config"
	"github.com/speedwagon-io/kpipublisher/internal/model"
)

// Field maps one key of the JSON response to a KPI.
type Field struct {
	Source string
	Target string
	Unit   model.Unit
}

// FieldsFromConfig resolves the unit names of the configured fields.
func FieldsFromConfig(cfgs []config.FieldConfig) ([]Field, error) {
	fields := make([]Field, 0, len(cfgs))
	for _, c := range cfgs {
		unit, err := model.ParseUnit(c.Unit)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", c.Source, err)
		}
		target := c.Target
		if target == "" {
			target = c.Source
		}
		fields = append(fields, Field{Source: c.Source, Target: target, Unit: unit})
	}
	return fields, nil
}

// HTTPSource reads a flat JSON object of values from an HTTP endpoint.
type HTTPSource struct {
	log    *slog.Logger
	url    string
	fields []Field
	client *http.Client
}

// NewHTTPSource creates a source polling url. Without fields every numeric
// key of the response becomes a KPI without a unit.
func NewHTTPSource(log *slog.Logger, url string, timeout time.Duration, fields []Field) *HTTPSource {
	return &HTTPSource{
		log:    log,
		url:    url,
		fields: fields,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (s *HTTPSource) Name() string {
	return "http"
}

func (s *HTTPSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *HTTPSource) Collect(ctx context.Context) ([]model.Kpi, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return s.transform(raw), nil
}

func (s *HTTPSource) transform(raw map[string]any) []model.Kpi {
	fields := s.fields
	if len(fields) == 0 {
		fields = make([]Field, 0, len(raw))
		for key := range raw {
			fields = append(fields, Field{Source: key, Target: key})
		}
		sort.Slice(fields, func(i, j int) bool { return fields[i].Source < fields[j].Source })
	}

	kpis := make([]model.Kpi, 0, len(fields))
	for _, f := range fields {
		rawValue, exists := raw[f.Source]
		if !exists {
			s.log.Debug("field not found in response", slog.String("source", f.Source))
			continue
		}

		value, ok := toFloat(rawValue)
		if !ok {
			s.log.Debug("field is not numeric",
				slog.String("source", f.Source),
				slog.Any("value", rawValue),
			)
			continue
		}

		kpis = append(kpis, model.NewKpi(f.Target, f.Unit, value))
	}

	return kpis
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
