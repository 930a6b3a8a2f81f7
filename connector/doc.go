// Package connector sends signed requests over the network.
//
// HTTP is the net/http connector, instrumented with otelhttp so each call
// gets a client span with connection-level events. Breaker and Bulkhead
// are decorators that add a circuit breaker and a concurrency limit around
// any Connector:
//
//	conn := connector.NewBulkhead(
//	    connector.NewBreaker(connector.NewHTTP(connector.HTTPConfig{}), connector.BreakerConfig{}),
//	    connector.BulkheadConfig{MaxConcurrent: 32},
//	)
//
// Every transport failure is returned as an *sdkerr.ConnectorError whose
// kind (timeout, io, user, other) drives retry classification.
package connector
