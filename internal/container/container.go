// Package container resolves commands and conversations registered by
// identifier, constructing a fresh instance on every resolution.
package container

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/dig"

	apperrors "github.com/edgard/tgbotsdk/internal/errors"
)

// Resolver builds the instance registered under id.
type Resolver interface {
	Resolve(ctx context.Context, id string) (any, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, id string) (any, error)

func (f ResolverFunc) Resolve(ctx context.Context, id string) (any, error) {
	return f(ctx, id)
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Dig is a Resolver backed by a dig container. Dependencies are provided
// by type; handlers are registered by identifier with a constructor whose
// parameters are resolved from the container.
type Dig struct {
	container *dig.Container

	mu           sync.RWMutex
	constructors map[string]reflect.Value
}

// NewDig creates an empty container.
func NewDig(opts ...dig.Option) *Dig {
	return &Dig{
		container:    dig.New(opts...),
		constructors: make(map[string]reflect.Value),
	}
}

// Provide adds a dependency constructor, as dig.Container.Provide.
func (d *Dig) Provide(constructor any, opts ...dig.ProvideOption) error {
	if err := d.container.Provide(constructor, opts...); err != nil {
		return apperrors.NewConfigurationError("provide dependency", err)
	}
	return nil
}

// Supply adds ready-made values, each provided under its dynamic type.
// Use Provide with dig.As to expose a value as an interface.
func (d *Dig) Supply(values ...any) error {
	for _, v := range values {
		if v == nil {
			return apperrors.NewConfigurationError("supply nil value", nil)
		}
		rv := reflect.ValueOf(v)
		fnType := reflect.FuncOf(nil, []reflect.Type{rv.Type()}, false)
		fn := reflect.MakeFunc(fnType, func([]reflect.Value) []reflect.Value {
			return []reflect.Value{rv}
		})
		if err := d.Provide(fn.Interface()); err != nil {
			return err
		}
	}
	return nil
}

// Register binds id to constructor, a function returning the handler and
// optionally an error. Its parameters are resolved by type on every
// Resolve call.
func (d *Dig) Register(id string, constructor any) error {
	fn := reflect.ValueOf(constructor)
	if fn.Kind() != reflect.Func {
		return apperrors.NewConfigurationError(fmt.Sprintf("%s: constructor is %T, not a function", id, constructor), nil)
	}
	ft := fn.Type()
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
	default:
		return apperrors.NewConfigurationError(fmt.Sprintf("%s: constructor must return (T) or (T, error)", id), nil)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.constructors[id]; exists {
		return apperrors.NewConfigurationError(fmt.Sprintf("%s: already registered", id), nil)
	}
	d.constructors[id] = fn
	return nil
}

// Resolve constructs a new instance for id.
func (d *Dig) Resolve(_ context.Context, id string) (any, error) {
	d.mu.RLock()
	fn, ok := d.constructors[id]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("resolve %s: not registered", id)
	}

	ft := fn.Type()
	in := make([]reflect.Type, ft.NumIn())
	for i := range in {
		in[i] = ft.In(i)
	}

	var (
		instance any
		buildErr error
	)
	invoker := reflect.MakeFunc(reflect.FuncOf(in, nil, false), func(args []reflect.Value) []reflect.Value {
		out := fn.Call(args)
		if len(out) == 2 && !out[1].IsNil() {
			buildErr = out[1].Interface().(error)
			return nil
		}
		instance = out[0].Interface()
		return nil
	})

	if err := d.container.Invoke(invoker.Interface()); err != nil {
		return nil, fmt.Errorf("resolve %s: %w", id, dig.RootCause(err))
	}
	if buildErr != nil {
		return nil, fmt.Errorf("resolve %s: %w", id, buildErr)
	}
	if instance == nil {
		return nil, fmt.Errorf("resolve %s: constructor returned nil", id)
	}
	return instance, nil
}
