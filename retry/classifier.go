package retry

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonwraymond/sdkruntime/interceptor"
)

// ErrorKind is the retry category of a failed attempt.
type ErrorKind int

const (
	// TransientError covers connection failures, timeouts and malformed
	// responses.
	TransientError ErrorKind = iota + 1
	// ThrottlingError means the service asked the client to slow down.
	ThrottlingError
	// ServerError is a failure on the service side.
	ServerError
	// ClientError is a failure caused by the request; it is never retried.
	ClientError
)

func (k ErrorKind) String() string {
	switch k {
	case TransientError:
		return "transient"
	case ThrottlingError:
		return "throttling"
	case ServerError:
		return "server"
	case ClientError:
		return "client"
	default:
		return "unclassified"
	}
}

// ActionType is the verdict of a classifier.
type ActionType int

const (
	// NoActionIndicated means the classifier has no opinion.
	NoActionIndicated ActionType = iota
	// RetryIndicated means the error is retryable.
	RetryIndicated
	// RetryForbidden means the error must not be retried.
	RetryForbidden
)

// Action is a classifier's verdict on the outcome of an attempt.
type Action struct {
	Type ActionType
	Kind ErrorKind

	// RetryAfter is an explicit, server-specified delay. Zero means none.
	RetryAfter time.Duration
}

// NoAction is the verdict of a classifier with no opinion.
var NoAction = Action{}

// Retryable returns a verdict to retry an error of the given kind.
func Retryable(kind ErrorKind) Action {
	return Action{Type: RetryIndicated, Kind: kind}
}

// RetryableAfter returns a verdict to retry after an explicit delay.
func RetryableAfter(kind ErrorKind, after time.Duration) Action {
	return Action{Type: RetryIndicated, Kind: kind, RetryAfter: after}
}

// Forbidden returns a verdict that forbids retrying.
func Forbidden() Action {
	return Action{Type: RetryForbidden}
}

func (a Action) String() string {
	switch a.Type {
	case RetryIndicated:
		if a.RetryAfter > 0 {
			return fmt.Sprintf("retry %s error after %s", a.Kind, a.RetryAfter)
		}
		return fmt.Sprintf("retry %s error", a.Kind)
	case RetryForbidden:
		return "retry forbidden"
	default:
		return "no action indicated"
	}
}

// Priority orders classifiers. Classifiers with a higher priority are
// consulted first.
type Priority int

// Built-in priorities.
const (
	PriorityHTTPStatus Priority = 0
	PriorityModeled    Priority = 10
	PriorityTransient  Priority = 20
)

// Classifier inspects the outcome of an attempt.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Purity: Classify must not mutate the context.
type Classifier interface {
	Name() string
	Priority() Priority
	Classify(ic *interceptor.Context) Action
}

// Classifiers is an immutable, priority-ordered set of classifiers.
type Classifiers struct {
	list []Classifier
}

// NewClassifiers orders cs by descending priority. Classifiers with equal
// priority keep their given order.
func NewClassifiers(cs ...Classifier) *Classifiers {
	list := slices.Clone(cs)
	list = slices.DeleteFunc(list, func(c Classifier) bool { return c == nil })
	slices.SortStableFunc(list, func(a, b Classifier) int {
		return int(b.Priority()) - int(a.Priority())
	})
	return &Classifiers{list: list}
}

// DefaultClassifiers returns the status-code, modeled-error and transient
// classifiers.
func DefaultClassifiers() *Classifiers {
	return NewClassifiers(
		NewHTTPStatusClassifier(),
		ModeledClassifier{},
		TransientClassifier{},
	)
}

// With returns a new set with extra classifiers added.
func (c *Classifiers) With(extra ...Classifier) *Classifiers {
	return NewClassifiers(append(slices.Clone(c.list), extra...)...)
}

// Names returns classifier names in consultation order.
func (c *Classifiers) Names() []string {
	names := make([]string, len(c.list))
	for i, cl := range c.list {
		names[i] = cl.Name()
	}
	return names
}

// Classify returns the verdict of the first classifier with an opinion.
func (c *Classifiers) Classify(ctx context.Context, ic *interceptor.Context) Action {
	log := zerolog.Ctx(ctx)
	for _, cl := range c.list {
		action := cl.Classify(ic)
		if action.Type == NoActionIndicated {
			log.Trace().Str("classifier", cl.Name()).Msg("classifier ignored the outcome")
			continue
		}
		log.Trace().Str("classifier", cl.Name()).Stringer("action", action).Msg("classifier classified the outcome")
		return action
	}
	return NoAction
}
