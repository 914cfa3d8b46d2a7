package xrotate

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/omeyang/xclog/pkg/observability/xrotate"

// 指标名称
const (
	metricRotations        = "xrotate.rotations"
	metricDeferred         = "xrotate.rotations.deferred"
	metricLockFailures     = "xrotate.lock.failures"
	metricCompressFailures = "xrotate.compress.failures"
)

// 轮转触发原因
const (
	triggerSize   = "size"
	triggerTime   = "time"
	triggerManual = "manual"
)

// rotationMetrics 按进程统计的轮转计数
type rotationMetrics struct {
	attrs            attribute.Set
	rotations        metric.Int64Counter
	deferred         metric.Int64Counter
	lockFailures     metric.Int64Counter
	compressFailures metric.Int64Counter
}

func newRotationMetrics(mp metric.MeterProvider, path string) (*rotationMetrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	m := &rotationMetrics{
		attrs: attribute.NewSet(attribute.String("file", path)),
	}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.rotations, metricRotations, "completed log rotations"},
		{&m.deferred, metricDeferred, "rotations deferred because the file could not be renamed"},
		{&m.lockFailures, metricLockFailures, "records dropped because the lock could not be acquired"},
		{&m.compressFailures, metricCompressFailures, "rotated files left uncompressed after a gzip failure"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit("1"))
		if err != nil {
			return nil, fmt.Errorf("xrotate: create counter %s failed: %w", c.name, err)
		}
		*c.dst = counter
	}
	return m, nil
}

func (m *rotationMetrics) rotated(policy, trigger string) {
	m.rotations.Add(context.Background(), 1,
		metric.WithAttributeSet(m.attrs),
		metric.WithAttributes(attribute.String("policy", policy), attribute.String("trigger", trigger)),
	)
}

func (m *rotationMetrics) deferredRotation() {
	m.deferred.Add(context.Background(), 1, metric.WithAttributeSet(m.attrs))
}

func (m *rotationMetrics) lockFailed() {
	m.lockFailures.Add(context.Background(), 1, metric.WithAttributeSet(m.attrs))
}

func (m *rotationMetrics) compressFailed() {
	m.compressFailures.Add(context.Background(), 1, metric.WithAttributeSet(m.attrs))
}
