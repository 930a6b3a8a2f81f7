// Package sdkerr defines the error taxonomy shared by the request runtime.
//
// Every operation failure returned to a caller is an *Error whose Kind tells
// where the failure happened:
//
//   - KindConstruction: the request never left the client (configuration,
//     serialization, identity resolution, retry quota exhaustion).
//   - KindTimeout: an operation or attempt deadline elapsed.
//   - KindDispatch: the connector could not complete the exchange.
//   - KindResponse: a response arrived but could not be decoded.
//   - KindService: the response decoded into a modeled service error.
//
// Use Error.Sent to decide whether retrying the operation yourself could
// duplicate side effects:
//
//	_, err := orchestrator.Invoke(ctx, components, op, input)
//	var se *sdkerr.Error
//	if errors.As(err, &se) && !se.Sent() {
//	    // safe to retry
//	}
package sdkerr
