package observe_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jonwraymond/sdkruntime/connector"
	"github.com/jonwraymond/sdkruntime/endpoint"
	"github.com/jonwraymond/sdkruntime/observe"
	"github.com/jonwraymond/sdkruntime/orchestrator"
)

func ExampleNewObserver_validation() {
	_, err := observe.NewObserver(context.Background(), observe.Config{})
	if errors.Is(err, observe.ErrMissingServiceName) {
		fmt.Println("missing service name")
	}
	// Output: missing service name
}

func ExampleTelemetry() {
	var logs bytes.Buffer
	obs, err := observe.NewObserver(context.Background(), observe.Config{
		ServiceName: "inventory-client",
		Tracing:     observe.TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1},
		Logging:     observe.LoggingConfig{Enabled: true, Level: "info", Output: &logs},
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	defer func() { _ = obs.Shutdown(context.Background()) }()

	telemetry, _ := observe.TelemetryFromObserver(obs)
	resolver, _ := endpoint.Static("https://inventory.example.com")
	ok := connector.Func(func(_ context.Context, req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("{}")), Request: req}, nil
	})

	components, _ := orchestrator.NewComponents(
		orchestrator.WithService("inventory"),
		orchestrator.WithEndpointResolver(resolver),
		orchestrator.WithConnector(ok),
		orchestrator.WithInterceptors(telemetry),
	)

	op := orchestrator.Operation[struct{}, int]{
		Name: "ListItems",
		Serializer: orchestrator.SerializerFunc[struct{}](func(ctx context.Context, _ struct{}) (*http.Request, error) {
			return http.NewRequestWithContext(ctx, http.MethodGet, "/items", nil)
		}),
		Deserializer: orchestrator.DeserializerFunc[int](func(_ context.Context, resp *http.Response) (int, error) {
			return resp.StatusCode, nil
		}),
	}
	if _, err := orchestrator.Invoke(context.Background(), components, op, struct{}{}); err != nil {
		fmt.Println(err)
		return
	}

	var entry map[string]any
	_ = json.Unmarshal(logs.Bytes(), &entry)
	fmt.Println(entry["message"], entry["sdk.operation"], entry["attempts"])
	// Output: operation completed inventory.ListItems 1
}
