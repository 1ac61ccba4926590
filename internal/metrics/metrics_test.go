package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegistry(reg)

	if m == nil {
		t.Fatal("NewMetricsWithRegistry returned nil")
	}
	if m.EncodeOpsTotal == nil {
		t.Error("EncodeOpsTotal metric is nil")
	}
	if m.ChecksumFailures == nil {
		t.Error("ChecksumFailures metric is nil")
	}
	if m.KeyBytesConsumed == nil {
		t.Error("KeyBytesConsumed metric is nil")
	}
}

func TestRecordEncode(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegistry(reg)

	m.RecordEncode(1000, 24, 0.01)
	m.RecordEncode(500, 12, 0.02)

	if got := testutil.ToFloat64(m.EncodeOpsTotal); got != 2 {
		t.Errorf("EncodeOpsTotal = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.BytesEncoded.WithLabelValues("text")); got != 1500 {
		t.Errorf("BytesEncoded = %v, want 1500", got)
	}
	if got := testutil.ToFloat64(m.FillBytesDrawn); got != 36 {
		t.Errorf("FillBytesDrawn = %v, want 36", got)
	}
}

func TestRecordEncodeError(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegistry(reg)

	m.RecordEncodeError("RAN_OUT_OF_KEY")
	m.RecordEncodeError("RAN_OUT_OF_KEY")
	m.RecordEncodeError("CANT_OPEN_KEY_FILE")

	if got := testutil.ToFloat64(m.EncodeErrors.WithLabelValues("RAN_OUT_OF_KEY")); got != 2 {
		t.Errorf("EncodeErrors[RAN_OUT_OF_KEY] = %v, want 2", got)
	}
}

func TestRecordDecode(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegistry(reg)

	m.RecordDecode(1000, 3, 0.015)

	if got := testutil.ToFloat64(m.DecodeOpsTotal); got != 1 {
		t.Errorf("DecodeOpsTotal = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.BytesDecoded.WithLabelValues("text")); got != 1000 {
		t.Errorf("BytesDecoded = %v, want 1000", got)
	}
}

func TestRecordChecksumFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegistry(reg)

	m.RecordChecksumFailure()
	m.RecordChecksumFailure()

	if got := testutil.ToFloat64(m.ChecksumFailures); got != 2 {
		t.Errorf("ChecksumFailures = %v, want 2", got)
	}
}

func TestRecordKeyConsumptionAndErasure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegistry(reg)

	m.RecordKeyConsumption("123", 512)
	m.RecordKeyErasure("123", 512)

	if got := testutil.ToFloat64(m.KeyBytesConsumed.WithLabelValues("123")); got != 512 {
		t.Errorf("KeyBytesConsumed = %v, want 512", got)
	}
	if got := testutil.ToFloat64(m.KeyBytesErased.WithLabelValues("123")); got != 512 {
		t.Errorf("KeyBytesErased = %v, want 512", got)
	}
}

func TestRecordSelfTest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegistry(reg)

	m.RecordSelfTest(true)
	m.RecordSelfTest(false)

	if got := testutil.ToFloat64(m.SelfTestsRun); got != 2 {
		t.Errorf("SelfTestsRun = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.SelfTestFailures); got != 1 {
		t.Errorf("SelfTestFailures = %v, want 1", got)
	}
}

func TestDefaultIsSingleton(t *testing.T) {
	if Default() != Default() {
		t.Error("Default() returned different instances")
	}
}
