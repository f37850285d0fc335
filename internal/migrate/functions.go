package migrate

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownFunction is returned for an UpdateFunction nothing registered
var ErrUnknownFunction = errors.New("unknown update function")

// Func is a Go-implemented upgrade step
type Func func(ctx context.Context, env Env, args []string) error

// Functions maps UpdateFunction names to their implementation
type Functions map[string]Func

// DoNothing is a placeholder for retired upgrade steps whose slot must stay
// in the list
func DoNothing(context.Context, Env, []string) error {
	return nil
}

var builtins = Functions{
	"do_nothing": DoNothing,
}

func (f Functions) lookup(name string) (Func, error) {
	if fn, ok := f[name]; ok {
		return fn, nil
	}
	if fn, ok := builtins[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
}
