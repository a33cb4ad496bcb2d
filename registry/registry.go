package registry

import (
	"errors"
	"io"
	"slices"
	"sync"

	"github.com/go-gost/blackhole/routing"
)

var (
	ErrDup  = errors.New("registry: duplicate object")
	ErrName = errors.New("registry: empty name")
)

// NewProtocol constructs a forwarding protocol variant.
type NewProtocol func(opts ...routing.Option) routing.Protocol

var (
	protocolReg Registry[NewProtocol]      = new(registry[NewProtocol])
	nodeReg     Registry[routing.Protocol] = new(registry[routing.Protocol])
)

type Registry[T any] interface {
	Register(name string, v T) error
	Unregister(name string)
	IsRegistered(name string) bool
	Get(name string) T
	GetAll() map[string]T
	Names() []string
}

type registry[T any] struct {
	m sync.Map
}

func (r *registry[T]) Register(name string, v T) error {
	if name == "" {
		return ErrName
	}
	if _, loaded := r.m.LoadOrStore(name, v); loaded {
		return ErrDup
	}
	return nil
}

// Unregister removes name, closing the object if it is an io.Closer.
func (r *registry[T]) Unregister(name string) {
	v, ok := r.m.LoadAndDelete(name)
	if !ok {
		return
	}
	if closer, ok := v.(io.Closer); ok {
		closer.Close()
	}
}

func (r *registry[T]) IsRegistered(name string) bool {
	_, ok := r.m.Load(name)
	return ok
}

func (r *registry[T]) Get(name string) (t T) {
	if name == "" {
		return
	}
	v, _ := r.m.Load(name)
	t, _ = v.(T)
	return
}

func (r *registry[T]) GetAll() map[string]T {
	m := make(map[string]T)
	r.m.Range(func(key, value any) bool {
		k, _ := key.(string)
		v, _ := value.(T)
		m[k] = v
		return true
	})
	return m
}

// Names returns the registered names in lexical order.
func (r *registry[T]) Names() []string {
	var names []string
	r.m.Range(func(key, _ any) bool {
		k, _ := key.(string)
		names = append(names, k)
		return true
	})
	slices.Sort(names)
	return names
}

// ProtocolRegistry holds the protocol constructors by handler name.
func ProtocolRegistry() Registry[NewProtocol] {
	return protocolReg
}

// NodeRegistry holds the running protocol instances by node name.
func NodeRegistry() Registry[routing.Protocol] {
	return nodeReg
}
