package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestStartSpan(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "compile", attribute.String("root", "src"))
	if span == nil {
		t.Fatal("StartSpan returned nil span")
	}
	if !trace.SpanFromContext(ctx).SpanContext().Equal(span.SpanContext()) {
		t.Error("Expected span in returned context")
	}

	EndSpan(span, nil)
}

func TestEndSpan_Error(t *testing.T) {
	_, span := StartSpan(context.Background(), "extract")
	EndSpan(span, errors.New("corrupt archive"))
	if span.IsRecording() {
		t.Error("Expected ended span to stop recording")
	}
}

func TestEndSpan_Recorded(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	useProvider(t, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	_, span := StartSpan(context.Background(), "avrobuild.run", attribute.String("configuration", "main"))
	EndSpan(span, errors.New("unresolved type"))

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("Expected 1 ended span, got %d", len(ended))
	}
	if ended[0].Name() != "avrobuild.run" {
		t.Errorf("Expected span name avrobuild.run, got %s", ended[0].Name())
	}
	if ended[0].Status().Code != codes.Error {
		t.Errorf("Expected error status, got %v", ended[0].Status().Code)
	}
}

func TestInitOTel_Disabled(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := InitOTel(context.Background(), OTelConfig{}, logrus.New())
	if err != nil {
		t.Fatalf("InitOTel() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Error("Expected global tracer provider to be left alone")
	}
}

func TestInitOTel_InstallsProvider(t *testing.T) {
	useProvider(t, otel.GetTracerProvider())

	shutdown, err := InitOTel(context.Background(), OTelConfig{
		Endpoint:    "127.0.0.1:4317",
		ServiceName: "avrobuild",
		Insecure:    true,
	}, logrus.New())
	if err != nil {
		t.Fatalf("InitOTel() error = %v", err)
	}

	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Errorf("Expected sdk tracer provider, got %T", otel.GetTracerProvider())
	}
	_, span := StartSpan(context.Background(), "compile")
	if !span.IsRecording() || !span.SpanContext().IsValid() {
		t.Error("Expected a recording span with a valid context")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

// useProvider installs tp globally for the duration of the test
func useProvider(t *testing.T, tp trace.TracerProvider) {
	t.Helper()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
}
