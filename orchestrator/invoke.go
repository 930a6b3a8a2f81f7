package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonwraymond/sdkruntime/auth"
	"github.com/jonwraymond/sdkruntime/connector"
	"github.com/jonwraymond/sdkruntime/endpoint"
	"github.com/jonwraymond/sdkruntime/identity"
	"github.com/jonwraymond/sdkruntime/interceptor"
	"github.com/jonwraymond/sdkruntime/sdkerr"
)

// Invoke runs op with input and returns its output.
//
// Failures are returned as *sdkerr.Error (possibly wrapped, for example in
// a *retry.QuotaExhaustedError) carrying the kind, the operation name, the
// number of attempts and the last response.
func Invoke[In, Out any](ctx context.Context, c *Components, op Operation[In, Out], input In) (Out, error) {
	var out Out
	ic, err := InvokeWithStopPoint(ctx, c, op, input, StopNone)
	if err != nil {
		return out, err
	}
	out, _ = ic.Output().(Out)
	return out, nil
}

// InvokeWithStopPoint runs op until stop and returns the interceptor
// context. With StopBeforeTransmit the context holds the signed request.
func InvokeWithStopPoint[In, Out any](ctx context.Context, c *Components, op Operation[In, Out], input In, stop StopPoint) (*interceptor.Context, error) {
	if op.Serializer == nil || op.Deserializer == nil {
		err := sdkerr.Construction(fmt.Errorf("%w: a serializer and a deserializer are required", ErrInvalidOperation))
		err.Operation = op.Name
		return nil, err
	}

	service := op.Service
	if service == "" {
		service = c.service
	}

	inv := &invocation{
		c:       c,
		chain:   c.interceptors.With(op.Interceptors...),
		ic:      interceptor.NewContext(input),
		name:    op.Name,
		service: service,
		stop:    stop,
		serialize: func(ctx context.Context, in any) (*http.Request, error) {
			typed, ok := in.(In)
			if !ok {
				return nil, fmt.Errorf("%w: %T", ErrInputType, in)
			}
			return op.Serializer.SerializeInput(ctx, typed)
		},
		deserialize: func(ctx context.Context, resp *http.Response) (any, error) {
			return op.Deserializer.DeserializeResponse(ctx, resp)
		},
	}
	if op.EndpointParams != nil {
		inv.adjustParams = func(in any, p *endpoint.Params) {
			if typed, ok := in.(In); ok {
				op.EndpointParams(typed, p)
			}
		}
	}

	props := inv.ic.Properties()
	interceptor.Set(props, interceptor.OperationNameKey, op.Name)
	interceptor.Set(props, interceptor.ServiceNameKey, service)

	err := inv.run(ctx)
	return inv.ic, err
}

// invocation is the state of one Invoke call. It is confined to the
// calling goroutine.
type invocation struct {
	c       *Components
	chain   *interceptor.Chain
	ic      *interceptor.Context
	name    string
	service string
	stop    StopPoint

	serialize    func(context.Context, any) (*http.Request, error)
	deserialize  func(context.Context, *http.Response) (any, error)
	adjustParams func(any, *endpoint.Params)

	selection  *auth.Selection
	checkpoint *http.Request
	replayable bool
	stopped    bool
}

func (inv *invocation) run(ctx context.Context) error {
	if d := inv.c.operationTimeout; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	log := zerolog.Ctx(ctx).With().Str("operation", inv.name).Logger()
	ctx = log.WithContext(ctx)

	inv.execute(ctx)
	inv.always(ctx, interceptor.ModifyBeforeCompletion, interceptor.ReadAfterExecution)

	return inv.finalize(ctx)
}

func (inv *invocation) execute(ctx context.Context) {
	ic := inv.ic

	if !inv.hooks(ctx, interceptor.ReadBeforeExecution, interceptor.ModifyBeforeSerialization, interceptor.ReadBeforeSerialization) {
		return
	}

	ic.EnterPhase(interceptor.PhaseSerialization)
	req, err := inv.serialize(ctx, ic.Input())
	if err == nil && req == nil {
		err = ErrNoRequest
	}
	if err != nil {
		ic.SetError(sdkerr.Construction(err))
		return
	}
	ic.SetRequest(req)
	ic.EnterPhase(interceptor.PhaseBeforeTransmit)

	if !inv.hooks(ctx, interceptor.ReadAfterSerialization, interceptor.ModifyBeforeRetryLoop) {
		return
	}

	if err := inv.selectAuth(); err != nil {
		ic.SetError(sdkerr.Construction(err))
		return
	}

	decision, err := inv.c.strategy.ShouldAttemptInitialRequest(ctx, ic)
	if err == nil && !decision.ShouldAttempt() {
		err = ErrAttemptRejected
	}
	if err != nil {
		ic.SetError(sdkerr.Construction(err))
		return
	}
	if d := decision.Delay(); d > 0 {
		if err := inv.c.sleep(ctx, d); err != nil {
			ic.SetError(sdkerr.Construction(err))
			return
		}
	}

	inv.checkpoint = ic.Request()
	inv.replayable = replayable(inv.checkpoint)
	inv.loop(ctx)
}

func (inv *invocation) selectAuth() error {
	params := auth.Params{Service: inv.service, Operation: inv.name, Region: inv.c.params.Region}
	options, err := inv.c.authOptions.ResolveAuthOptions(params)
	if err != nil {
		return err
	}
	sel, err := auth.Select(options, inv.c.schemes, inv.c.identities)
	if err != nil {
		return err
	}
	inv.selection = sel
	interceptor.Set(inv.ic.Properties(), interceptor.AuthSchemeKey, string(sel.Option.SchemeID))
	return nil
}

func (inv *invocation) loop(ctx context.Context) {
	ic := inv.ic
	log := zerolog.Ctx(ctx)

	for attempt := 1; ; attempt++ {
		interceptor.Set(ic.Properties(), interceptor.AttemptsKey, attempt)
		ic.ResetAttempt()

		req, err := rewind(ctx, inv.checkpoint)
		if err != nil {
			ic.SetError(sdkerr.Construction(err))
			return
		}

		inv.attempt(ctx, req)
		inv.always(ctx, interceptor.ModifyBeforeAttemptCompletion, interceptor.ReadAfterAttempt)

		if inv.stopped {
			return
		}
		inv.invalidateIfStale(ctx)

		if ctx.Err() != nil {
			log.Debug().Int("attempt", attempt).Msg("operation context done, not consulting retry strategy")
			return
		}

		decision, err := inv.c.strategy.ShouldAttemptRetry(ctx, ic)
		if err != nil {
			inv.replaceError(err)
			return
		}
		if !decision.ShouldAttempt() {
			return
		}
		if !inv.replayable {
			log.Debug().Int("attempt", attempt).Msg("not retrying: request body cannot be replayed")
			return
		}
		if d := decision.Delay(); d > 0 {
			if err := inv.c.sleep(ctx, d); err != nil {
				inv.replaceError(err)
				return
			}
		}
	}
}

func (inv *invocation) attempt(ctx context.Context, req *http.Request) {
	ic := inv.ic
	if d := inv.c.attemptTimeout; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	ic.EnterPhase(interceptor.PhaseBeforeTransmit)
	ic.SetRequest(req)
	if !inv.hooks(ctx, interceptor.ReadBeforeAttempt) {
		return
	}

	ep, err := inv.c.endpoints.ResolveEndpoint(ctx, inv.endpointParams())
	if err == nil {
		err = endpoint.Apply(ic.Request(), ep)
	}
	if err != nil {
		ic.SetError(unsentError(fmt.Errorf("resolve endpoint: %w", err)))
		return
	}
	interceptor.Set(ic.Properties(), interceptor.EndpointURLKey, ep.URL)

	if !inv.hooks(ctx, interceptor.ModifyBeforeSigning, interceptor.ReadBeforeSigning) {
		return
	}
	if err := inv.sign(ctx, ep); err != nil {
		ic.SetError(unsentError(err))
		return
	}
	if !inv.hooks(ctx, interceptor.ReadAfterSigning, interceptor.ModifyBeforeTransmit, interceptor.ReadBeforeTransmit) {
		return
	}

	if inv.stop == StopBeforeTransmit {
		inv.stopped = true
		return
	}

	ic.EnterPhase(interceptor.PhaseTransmit)
	resp, err := inv.c.connector.Call(ctx, ic.Request())
	if err != nil {
		ic.SetError(sentError(err))
		return
	}
	err = buffer(resp)
	ic.SetResponse(resp)
	if err != nil {
		ic.SetError(sentError(err))
		return
	}
	inv.recordClockSkew(resp)

	ic.EnterPhase(interceptor.PhaseBeforeDeserialization)
	if !inv.hooks(ctx, interceptor.ReadAfterTransmit, interceptor.ModifyBeforeDeserialization, interceptor.ReadBeforeDeserialization) {
		return
	}

	ic.EnterPhase(interceptor.PhaseDeserialization)
	out, err := inv.deserialize(ctx, ic.Response())
	if err != nil {
		ic.SetError(deserializeError(err, ic.Response()))
	} else {
		ic.SetOutput(out)
	}

	ic.EnterPhase(interceptor.PhaseAfterDeserialization)
	inv.hooks(ctx, interceptor.ReadAfterDeserialization)
}

func (inv *invocation) endpointParams() endpoint.Params {
	p := inv.c.params
	p.Service = inv.service
	p.Operation = inv.name
	if inv.adjustParams != nil {
		inv.adjustParams(inv.ic.Input(), &p)
	}
	return p
}

func (inv *invocation) sign(ctx context.Context, ep *endpoint.Endpoint) error {
	sel := inv.selection

	id, err := sel.IdentityResolver.ResolveIdentity(ctx)
	if err != nil {
		return fmt.Errorf("resolve %s identity: %w", sel.Option.SchemeID, err)
	}
	cfg, err := auth.ExtractEndpointConfig(ep, sel.Option.SchemeID)
	if err != nil {
		return err
	}

	return sel.Scheme.Signer().Sign(ctx, inv.ic.Request(), id, auth.SigningParams{
		Option:   sel.Option,
		Config:   cfg,
		Endpoint: ep,
		Now:      inv.signingTime(),
	})
}

// signingTime is the client clock corrected by the skew observed on
// earlier responses.
func (inv *invocation) signingTime() time.Time {
	skew := interceptor.GetOr(inv.ic.Properties(), interceptor.ClockSkewKey, 0)
	return inv.c.now().Add(skew)
}

func (inv *invocation) recordClockSkew(resp *http.Response) {
	date := resp.Header.Get("Date")
	if date == "" {
		return
	}
	server, err := http.ParseTime(date)
	if err != nil {
		return
	}
	interceptor.Set(inv.ic.Properties(), interceptor.ClockSkewKey, server.Sub(inv.c.now()))
}

type staleIdentity interface {
	StaleIdentity() bool
}

func (inv *invocation) invalidateIfStale(ctx context.Context) {
	ic := inv.ic
	if !ic.Failed() || inv.selection == nil {
		return
	}

	stale := ic.Response() != nil && ic.Response().StatusCode == http.StatusUnauthorized
	var s staleIdentity
	if errors.As(ic.Err(), &s) && s.StaleIdentity() {
		stale = true
	}
	if !stale {
		return
	}

	if cache, ok := inv.selection.IdentityResolver.(identity.Invalidator); ok {
		cache.Invalidate()
		zerolog.Ctx(ctx).Debug().
			Str("scheme", string(inv.selection.Option.SchemeID)).
			Msg("identity rejected as stale, cache invalidated")
	}
}

// hooks runs each hook in order and stops at the first failing one.
func (inv *invocation) hooks(ctx context.Context, hooks ...interceptor.Hook) bool {
	for _, h := range hooks {
		if err := inv.chain.Run(ctx, h, inv.ic); err != nil {
			inv.ic.SetError(err)
			return false
		}
	}
	return true
}

// always runs every hook even after failures; the last error wins.
func (inv *invocation) always(ctx context.Context, hooks ...interceptor.Hook) {
	for _, h := range hooks {
		if err := inv.chain.Run(ctx, h, inv.ic); err != nil {
			inv.ic.SetError(err)
		}
	}
}

// replaceError records err as the operation failure while keeping the
// attempt's error reachable through errors.Is and errors.As.
func (inv *invocation) replaceError(err error) {
	if prev := inv.ic.Err(); prev != nil && !errors.Is(err, prev) {
		err = fmt.Errorf("%w: %w", err, prev)
	}
	inv.ic.ReplaceError(err)
}

func (inv *invocation) finalize(ctx context.Context) error {
	ic := inv.ic
	err := ic.Err()
	if err == nil {
		return nil
	}

	attempts := ic.Attempts()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !sdkerr.IsTimeout(err) {
		return &sdkerr.Error{
			Kind:      sdkerr.KindTimeout,
			Operation: inv.name,
			Attempts:  attempts,
			Response:  ic.Response(),
			Err:       fmt.Errorf("%w: %w", ErrOperationTimeout, err),
		}
	}

	var se *sdkerr.Error
	if !errors.As(err, &se) {
		se = &sdkerr.Error{Kind: phaseKind(ic.Phase()), Err: err}
		err = se
	}
	se.Operation = inv.name
	se.Attempts = attempts
	if se.Response == nil {
		se.Response = ic.Response()
	}
	return err
}

func phaseKind(p interceptor.Phase) sdkerr.Kind {
	switch {
	case p < interceptor.PhaseTransmit:
		return sdkerr.KindConstruction
	case p == interceptor.PhaseTransmit:
		return sdkerr.KindDispatch
	default:
		return sdkerr.KindResponse
	}
}

// unsentError classifies a failure that happened before transmit.
func unsentError(err error) *sdkerr.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return sdkerr.Timeout(err)
	}
	return sdkerr.Construction(err)
}

// sentError classifies a connector failure. Calls the connector refused
// before sending stay unsent.
func sentError(err error) *sdkerr.Error {
	err = connector.Classify(err)
	var ce *sdkerr.ConnectorError
	if errors.As(err, &ce) && ce.IsRejected() {
		return unsentError(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return sdkerr.Timeout(err)
	}
	return sdkerr.Dispatch(err)
}

func deserializeError(err error, resp *http.Response) error {
	var se *sdkerr.Error
	if errors.As(err, &se) {
		if se.Response == nil {
			se.Response = resp
		}
		return err
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return sdkerr.Service(err, resp)
	}
	return sdkerr.Response(err, resp)
}

func replayable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

// rewind returns a fresh copy of the serialized request for an attempt.
func rewind(ctx context.Context, checkpoint *http.Request) (*http.Request, error) {
	req := checkpoint.Clone(ctx)
	if checkpoint.GetBody != nil && checkpoint.Body != nil && checkpoint.Body != http.NoBody {
		body, err := checkpoint.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewind request body: %w", err)
		}
		req.Body = body
	}
	return req, nil
}

// buffer reads the response body into memory so deserializers, retries and
// the returned error can all read it.
func buffer(resp *http.Response) error {
	if resp.Body == nil {
		resp.Body = http.NoBody
		return nil
	}
	b, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(b))
	if err != nil {
		return &sdkerr.ConnectorError{Kind: sdkerr.ConnectorIO, Err: fmt.Errorf("read response body: %w", err)}
	}
	return nil
}
