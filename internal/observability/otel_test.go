package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"

	"github.com/klaimcare/coder-backend/internal/config"
)

func TestSetupOTel_DisabledIsNoop(t *testing.T) {
	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if shutdown == nil {
		t.Fatal("nil shutdown func")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetupOTel_ExporterErrorPropagates(t *testing.T) {
	orig := newOTLPExporterFn
	t.Cleanup(func() { newOTLPExporterFn = orig })

	wantErr := errors.New("exporter boom")
	newOTLPExporterFn = func(context.Context, otlptrace.Client) (*otlptrace.Exporter, error) {
		return nil, wantErr
	}

	cfg := config.OTELConfig{
		Enabled:     true,
		Endpoint:    "localhost:4317",
		Insecure:    true,
		ServiceName: "coder-backend",
		SampleRatio: 1.0,
	}
	if _, err := SetupOTel(context.Background(), cfg, "test"); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v", err)
	}
}

func TestServiceResource_CarriesIdentity(t *testing.T) {
	res, err := newServiceResourceFn(context.Background(), "coder-backend", "1.2.3")
	if err != nil {
		t.Fatalf("resource: %v", err)
	}

	var gotName, gotVersion, gotNamespace bool
	for _, attr := range res.Attributes() {
		switch string(attr.Key) {
		case "service.name":
			gotName = attr.Value.AsString() == "coder-backend"
		case "service.version":
			gotVersion = attr.Value.AsString() == "1.2.3"
		case "service.namespace":
			gotNamespace = attr.Value.AsString() == serviceNamespace
		}
	}
	if !gotName || !gotVersion || !gotNamespace {
		t.Fatalf("resource attributes = %v", res.Attributes())
	}
}
