package health

import (
	"context"
)

// BrokerHealthChecker reports the MQTT connection state.
type BrokerHealthChecker struct {
	connected func() bool
	state     func() string
}

// NewBrokerHealthChecker is unhealthy while connected reports false; state
// describes the connection in that case.
func NewBrokerHealthChecker(connected func() bool, state func() string) *BrokerHealthChecker {
	return &BrokerHealthChecker{connected: connected, state: state}
}

func (c *BrokerHealthChecker) Name() string {
	return "broker"
}

func (c *BrokerHealthChecker) Check(ctx context.Context) (Status, string) {
	if c.connected() {
		return StatusHealthy, ""
	}
	return StatusUnhealthy, c.state()
}

type SchedulerHealthChecker struct {
	running func() bool
}

func NewSchedulerHealthChecker(running func() bool) *SchedulerHealthChecker {
	return &SchedulerHealthChecker{running: running}
}

func (c *SchedulerHealthChecker) Name() string {
	return "scheduler"
}

func (c *SchedulerHealthChecker) Check(ctx context.Context) (Status, string) {
	if c.running() {
		return StatusHealthy, ""
	}
	return StatusDegraded, "not scheduling"
}
