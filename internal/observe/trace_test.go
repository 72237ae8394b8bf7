package observe

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan_PipelineStages(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	orig := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(orig) })

	// The two pipeline entry points span these names; nested stages
	// inherit the trace.
	for _, name := range []string{"analyze.file", "stream.chunk"} {
		t.Run(name, func(t *testing.T) {
			exp.Reset()
			ctx, span := StartSpan(context.Background(), name)
			if CorrelationID(ctx) == "" {
				t.Error("span context carries no trace ID")
			}
			span.End()

			spans := exp.GetSpans()
			if len(spans) != 1 {
				t.Fatalf("got %d spans, want 1", len(spans))
			}
			if spans[0].Name != name {
				t.Errorf("span name = %q, want %q", spans[0].Name, name)
			}
		})
	}
}

func TestCorrelationID(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	tracer := tp.Tracer("test")

	t.Run("empty without a span", func(t *testing.T) {
		if got := CorrelationID(context.Background()); got != "" {
			t.Errorf("CorrelationID = %q, want empty", got)
		}
	})

	t.Run("lower-hex trace ID inside a span", func(t *testing.T) {
		ctx, span := tracer.Start(context.Background(), "chunk")
		defer span.End()

		cid := CorrelationID(ctx)
		if len(cid) != 32 {
			t.Fatalf("length = %d, want 32", len(cid))
		}
		if strings.Trim(cid, "0123456789abcdef") != "" {
			t.Errorf("ID %q contains non-hex characters", cid)
		}
	})

	t.Run("distinct across sessions", func(t *testing.T) {
		seen := make(map[string]bool, 50)
		for range 50 {
			ctx, span := tracer.Start(context.Background(), "session")
			cid := CorrelationID(ctx)
			span.End()
			if seen[cid] {
				t.Fatalf("duplicate trace ID %s", cid)
			}
			seen[cid] = true
		}
	})
}

func TestLogger(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(orig) })

	t.Run("enriched inside a span", func(t *testing.T) {
		buf.Reset()
		ctx, span := tp.Tracer("test").Start(context.Background(), "analyze.file")
		defer span.End()

		Logger(ctx).Info("chunk scored", "verdict", "FAST_LANE")

		out := buf.String()
		for _, attr := range []string{"trace_id=", "span_id=", "verdict=FAST_LANE"} {
			if !strings.Contains(out, attr) {
				t.Errorf("log line missing %q: %s", attr, out)
			}
		}
	})

	t.Run("plain without a span", func(t *testing.T) {
		buf.Reset()
		Logger(context.Background()).Info("startup")
		if strings.Contains(buf.String(), "trace_id") {
			t.Errorf("spanless log line carries trace_id: %s", buf.String())
		}
	})
}

func TestTracer_UsesGlobalProvider(t *testing.T) {
	if Tracer() == nil {
		t.Fatal("Tracer() returned nil")
	}
}
