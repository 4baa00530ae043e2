package otel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type snapshotCounter struct {
	id  goSession.MetricID
	ins metric.Int64ObservableCounter
}

type engineCounter struct {
	read func(internaldefs.Source) uint64
	ins  metric.Int64ObservableCounter
}

type bucketGauges struct {
	id    goSession.MetricID
	le    [8]metric.Int64ObservableGauge
	count metric.Int64ObservableGauge
}

// OTelExporter observes session metrics through one meter callback. The
// callback stays registered until Close.
type OTelExporter struct {
	source     internaldefs.Source
	counters   []snapshotCounter
	engine     []engineCounter
	histograms []bucketGauges

	registration metric.Registration
	closeOnce    sync.Once
	closeErr     error
}

// NewOTelExporter observes engine.
func NewOTelExporter(meter metric.Meter, engine *goSession.Engine) (*OTelExporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource observes any snapshot source.
func NewOTelExporterFromSource(meter metric.Meter, source internaldefs.Source) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	var observables []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, snapshotCounter{id: def.ID, ins: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.EngineCounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", def.Name, err)
		}
		e.engine = append(e.engine, engineCounter{read: def.Read, ins: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		g := bucketGauges{id: def.ID}
		for i, suffix := range internaldefs.HistogramBoundSuffix {
			name := def.Name + "_bucket_le_" + suffix
			ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative bucket count."))
			if err != nil {
				return nil, fmt.Errorf("gauge %s: %w", name, err)
			}
			g.le[i] = ins
			observables = append(observables, ins)
		}
		ins, err := meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription("Total samples."))
		if err != nil {
			return nil, fmt.Errorf("gauge %s_count: %w", def.Name, err)
		}
		g.count = ins
		observables = append(observables, ins)
		e.histograms = append(e.histograms, g)
	}

	reg, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	if len(snapshot.Counters) > 0 || len(snapshot.Histograms) > 0 {
		for _, c := range e.counters {
			o.ObserveInt64(c.ins, int64(snapshot.Counters[c.id]))
		}
		for _, h := range e.histograms {
			cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[h.id]))
			for i := range cumulative {
				o.ObserveInt64(h.le[i], int64(cumulative[i]))
			}
			o.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
		}
	}
	for _, c := range e.engine {
		o.ObserveInt64(c.ins, int64(c.read(e.source)))
	}
	return nil
}

// Close unregisters the callback. Calling it again returns the first result.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	e.closeOnce.Do(func() {
		e.closeErr = e.registration.Unregister()
	})
	return e.closeErr
}
