package model

// Kpi is one sampled measurement.
type Kpi struct {
	Name  string  `json:"name"`
	Unit  Unit    `json:"unitId"`
	Value float64 `json:"value"`
}

func NewKpi(name string, unit Unit, value float64) Kpi {
	return Kpi{Name: name, Unit: unit, Value: value}
}
