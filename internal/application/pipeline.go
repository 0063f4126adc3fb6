package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
)

var tracer = otel.Tracer("github.com/ericfisherdev/creditgate/internal/application")

// Operation describes one metered gateway operation.
type Operation struct {
	Name string
	Cost int64
	// AccountScoped operations require a live downstream session.
	AccountScoped bool
}

// Pipeline runs metered operations: authenticate, validate, pre-check
// credits, call downstream, then charge.
type Pipeline struct {
	ledger  *CreditLedger
	usage   driven.UsageRecorder
	timeout time.Duration
	logger  *slog.Logger
}

// NewPipeline creates a Pipeline. usage may be nil. timeout bounds each
// downstream call; zero disables the bound.
func NewPipeline(ledger *CreditLedger, usage driven.UsageRecorder, timeout time.Duration, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		ledger:  ledger,
		usage:   usage,
		timeout: timeout,
		logger:  logger,
	}
}

// Invoke runs op for the authenticated request rc.
//
// validate checks the input shape and runs after authentication but before
// any credit or downstream interaction; it may be nil. call performs the
// downstream work. Credits are charged only after call succeeds. If the
// charge then fails because a concurrent request drained the balance, the
// downstream side effect has already happened and the caller still receives
// ErrInsufficientCredits.
func Invoke[T any](
	ctx context.Context,
	p *Pipeline,
	rc *RequestContext,
	op Operation,
	validate func() error,
	call func(ctx context.Context, account driven.BankAccount) (T, error),
) (T, error) {
	ctx, span := tracer.Start(ctx, "pipeline."+op.Name)
	defer span.End()
	span.SetAttributes(
		attribute.String("creditgate.operation", op.Name),
		attribute.Int64("creditgate.cost", op.Cost),
	)

	result, err := p.run(ctx, rc, op, validate, func(ctx context.Context, account driven.BankAccount) (any, error) {
		return call(ctx, account)
	})
	if err != nil {
		kind := KindOf(err)
		span.SetStatus(codes.Error, kind.String())
		if p.usage != nil {
			p.usage.Rejected(op.Name, kind.String())
		}
		var zero T
		return zero, err
	}
	v, _ := result.(T)
	return v, nil
}

// downstreamCall is a type-erased downstream invocation.
type downstreamCall func(ctx context.Context, account driven.BankAccount) (any, error)

// run is the non-generic body of Invoke.
func (p *Pipeline) run(
	ctx context.Context,
	rc *RequestContext,
	op Operation,
	validate func() error,
	call downstreamCall,
) (any, error) {
	if rc == nil || rc.APIKey == nil {
		return nil, ErrUnauthorized
	}
	if op.AccountScoped && rc.Account == nil {
		return nil, ErrUnauthorized
	}

	if validate != nil {
		if err := validate(); err != nil {
			var appErr *Error
			if errors.As(err, &appErr) {
				return nil, appErr
			}
			return nil, InvalidRequest("%s", err.Error())
		}
	}

	if op.Cost > 0 && !p.ledger.HasCredits(rc.APIKey, op.Cost) {
		return nil, ErrInsufficientCredits
	}

	result, err := p.callDownstream(ctx, rc, call)
	if err != nil {
		p.logger.Info("downstream call failed",
			"operation", op.Name,
			"key", rc.APIKey.UUID,
			"account_id", rc.AccountID,
			"error", err,
		)
		return nil, err
	}

	if op.Cost > 0 {
		ok, err := p.ledger.DeductCredits(ctx, rc.APIKey, op.Cost)
		if err != nil {
			p.logger.Error("credit deduction failed", "operation", op.Name, "key", rc.APIKey.UUID, "error", err)
			return nil, internalError("credit deduction failed", err)
		}
		if !ok {
			p.logger.Warn("credits exhausted after downstream success",
				"operation", op.Name,
				"key", rc.APIKey.UUID,
				"cost", op.Cost,
			)
			return nil, ErrInsufficientCredits
		}
		if p.usage != nil {
			p.usage.Debited(op.Name, op.Cost)
		}
	}

	return result, nil
}

// callDownstream applies the per-call timeout and converts any failure into
// an upstream error.
func (p *Pipeline) callDownstream(ctx context.Context, rc *RequestContext, call downstreamCall) (any, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	result, err := call(ctx, rc.Account)
	if err != nil {
		return nil, upstreamFailure(ctx, err)
	}
	return result, nil
}

// upstreamFailure wraps a downstream error, reporting deadline expiry as a timeout.
func upstreamFailure(ctx context.Context, err error) *Error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindUpstream, Message: "Upstream request timed out", Err: err}
	}
	return upstreamError(err)
}
