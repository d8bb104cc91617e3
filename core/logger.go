package core

import "context"

// Logger is implemented by services/logger.
// args may hold errors, maps of extras and at most one Operator.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Operator is the person driving an import or an allocation, as far as logs are concerned.
type Operator struct {
	ID   string
	Name string
}

const DefaultOperatorID = "default"

type operatorCtxKey struct{}

func WithOperator(ctx context.Context, op Operator) context.Context {
	return context.WithValue(ctx, operatorCtxKey{}, op)
}

// OperatorFrom returns the Operator stored in ctx, or the default one.
func OperatorFrom(ctx context.Context) Operator {
	if op, ok := ctx.Value(operatorCtxKey{}).(Operator); ok {
		return op
	}
	return Operator{ID: DefaultOperatorID}
}
