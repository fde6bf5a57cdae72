package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	menugate "github.com/mostafamohamed123hf/menugate"
	"github.com/mostafamohamed123hf/menugate/metrics/export/internaldefs"
)

var (
	// ErrNilMeter is returned when no meter is supplied.
	ErrNilMeter = errors.New("nil meter")
	// ErrNilSource is returned when no metrics source is supplied.
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() menugate.MetricsSnapshot
}

type observedCounter struct {
	id         menugate.MetricID
	instrument metric.Int64ObservableCounter
}

// OTelExporter bridges the gateway's counters onto an OTel meter.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []observedCounter
}

// NewOTelExporter creates an exporter reading from the given
// [menugate.Gateway].
func NewOTelExporter(meter metric.Meter, gateway *menugate.Gateway) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, gateway)
}

// NewOTelExporterFromSource creates an exporter from a custom source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &OTelExporter{
		source:   source,
		counters: make([]observedCounter, 0, len(internaldefs.CounterDefs)),
	}

	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs))
	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	registration, err := meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		snapshot := exporter.source.MetricsSnapshot()
		for _, c := range exporter.counters {
			observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
		}
		return nil
	}, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

// Close unregisters the observation callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
