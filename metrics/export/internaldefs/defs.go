package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// Source is what both exporters read. *goSession.Engine satisfies it.
type Source interface {
	MetricsSnapshot() goSession.MetricsSnapshot
	AuditDropped() uint64
	RefreshExchanges() uint64
}

// CounterDef binds a counter to its exported name.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef binds a histogram to its exported name.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricSignInSuccess, Name: "gosession_signin_success_total", Help: "Password sign-ins that produced a session."},
	{ID: goSession.MetricSignInFailure, Name: "gosession_signin_failure_total", Help: "Rejected password sign-ins."},
	{ID: goSession.MetricSignInRateLimited, Name: "gosession_signin_rate_limited_total", Help: "Sign-ins refused by the throttle."},
	{ID: goSession.MetricFederatedExchangeSuccess, Name: "gosession_federated_exchange_success_total", Help: "Federated identity exchanges that produced a session."},
	{ID: goSession.MetricFederatedExchangeFailure, Name: "gosession_federated_exchange_failure_total", Help: "Failed federated identity exchanges."},
	{ID: goSession.MetricRegisterSuccess, Name: "gosession_register_success_total", Help: "Registrations followed by a session."},
	{ID: goSession.MetricRegisterFailure, Name: "gosession_register_failure_total", Help: "Rejected registrations."},
	{ID: goSession.MetricRefreshSuccess, Name: "gosession_refresh_success_total", Help: "Successful remote refresh exchanges."},
	{ID: goSession.MetricRefreshFailure, Name: "gosession_refresh_failure_total", Help: "Failed remote refresh exchanges."},
	{ID: goSession.MetricRefreshShared, Name: "gosession_refresh_shared_total", Help: "Resolutions served by another caller's exchange."},
	{ID: goSession.MetricSignOut, Name: "gosession_signout_total", Help: "Explicit sign-outs."},
	{ID: goSession.MetricForcedSignOut, Name: "gosession_forced_signout_total", Help: "Sign-outs forced by a session failure."},
	{ID: goSession.MetricAccessRevoked, Name: "gosession_access_revoked_total", Help: "Downstream calls answered with 403."},
	{ID: goSession.MetricGateRedirect, Name: "gosession_gate_redirect_total", Help: "Requests redirected by the request gate."},
	{ID: goSession.MetricGuardDenied, Name: "gosession_guard_denied_total", Help: "Admin checks that denied access."},
	{ID: goSession.MetricStoreFailure, Name: "gosession_store_failure_total", Help: "Credential store errors."},
}

// EngineCounterDef is a counter read directly off the engine rather than
// from the metrics snapshot. These report even when metrics are disabled.
type EngineCounterDef struct {
	Name string
	Help string
	Read func(Source) uint64
}

// EngineCounterDefs lists the engine-level counters in render order.
var EngineCounterDefs = []EngineCounterDef{
	{
		Name: "gosession_audit_dropped_total",
		Help: "Audit events dropped under dispatcher backpressure.",
		Read: func(s Source) uint64 { return s.AuditDropped() },
	},
	{
		Name: "gosession_refresh_exchanges_total",
		Help: "Refresh exchanges that reached the remote API.",
		Read: func(s Source) uint64 { return s.RefreshExchanges() },
	},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricResolveLatency, Name: "gosession_resolve_latency_seconds", Help: "Session resolution latency histogram."},
}

// HistogramBounds are the upper bounds of the engine's latency buckets in
// seconds.
var HistogramBounds = []string{
	"0.001",
	"0.005",
	"0.025",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds spelled for instrument names.
var HistogramBoundSuffix = []string{
	"0_001",
	"0_005",
	"0_025",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
