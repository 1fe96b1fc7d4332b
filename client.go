package drivekit

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"
)

// Builder configures a Client.
type Builder struct {
	driver    Driver
	scope     Scope
	factories []ConverterFactory
	logger    logrus.FieldLogger
	hook      Hook
	eager     bool
}

// NewBuilder starts building a Client that executes requests with driver.
func NewBuilder(driver Driver) *Builder {
	return &Builder{driver: driver}
}

// BaseScope sets the authorization scope. It is required.
func (b *Builder) BaseScope(scope Scope) *Builder {
	b.scope = scope
	return b
}

// AddConverterFactory appends a factory to the converter chain. Factories are
// consulted in the order they are added, before the built-in converters.
// The chain finds a factory by identity when it delegates past itself, so f
// must be comparable; Build rejects nil and uncomparable factories.
func (b *Builder) AddConverterFactory(f ConverterFactory) *Builder {
	b.factories = append(b.factories, f)
	return b
}

// Logger sets the logger. Defaults to logrus.StandardLogger().
func (b *Builder) Logger(l logrus.FieldLogger) *Builder {
	b.logger = l
	return b
}

// Hook sets the observability hook run around each call.
func (b *Builder) Hook(h Hook) *Builder {
	b.hook = h
	return b
}

// ValidateEagerly makes Create compile every method of a service up front
// instead of on first use.
func (b *Builder) ValidateEagerly(v bool) *Builder {
	b.eager = v
	return b
}

// Build creates the Client.
func (b *Builder) Build() (*Client, error) {
	if b.driver == nil {
		return nil, ErrNilDriver
	}
	if b.scope == "" {
		return nil, ErrMissingScope
	}
	if !b.scope.valid() {
		return nil, fmt.Errorf("%w: scope must be one of %s or %s, got %q", ErrInvalidScope, ScopeAppFolder, ScopeFile, b.scope)
	}

	for i, f := range b.factories {
		if f == nil || !reflect.TypeOf(f).Comparable() {
			return nil, fmt.Errorf("converter factory #%d (%T) must be a non-nil comparable value, such as a pointer", i+1, f)
		}
	}

	c := &Client{
		driver: b.driver,
		scope:  b.scope,
		logger: b.logger,
		hook:   b.hook,
		eager:  b.eager,
	}
	c.factories = make([]ConverterFactory, 0, len(b.factories)+1)
	c.factories = append(c.factories, b.factories...)
	c.factories = append(c.factories, builtinFactory{})
	if c.logger == nil {
		c.logger = logrus.StandardLogger()
	}
	if c.hook == nil {
		c.hook = noopHook{}
	}
	return c, nil
}

// Client turns service declarations into executable storage operations. It
// owns the plan cache for every service it creates; plans live as long as the
// client.
type Client struct {
	driver    Driver
	scope     Scope
	factories []ConverterFactory
	logger    logrus.FieldLogger
	hook      Hook
	eager     bool

	mu    sync.Mutex
	plans sync.Map // methodKey -> *Plan
}

// Scope returns the client's authorization scope.
func (c *Client) Scope() Scope { return c.scope }

// Driver returns the driver requests are executed with.
func (c *Client) Driver() Driver { return c.driver }

// Create implements the func fields of the service struct svc points to.
// Every exported func field is a method; its struct tag declares the
// operation, path template and parameter bindings:
//
//	type Messages struct {
//		Save func(name string, m Message) *drivekit.Call[drivekit.ResourceID] `create:"messages/{name}" params:"path:name, body"`
//		Load func(name string) *drivekit.Call[Message]                        `read:"messages/{name}" params:"path:name"`
//	}
//
// Methods are compiled on first call unless the client validates eagerly.
func (c *Client) Create(svc any) error {
	methods, err := serviceMethods(svc)
	if err != nil {
		return err
	}
	if c.eager {
		for _, m := range methods {
			if _, err := c.loadPlan(m); err != nil {
				return err
			}
		}
	}
	v := reflect.ValueOf(svc).Elem()
	for _, m := range methods {
		v.Field(m.key.index).Set(reflect.MakeFunc(m.fn, c.invoker(m)))
	}
	return nil
}

// Validate compiles every method of svc, reporting the first malformed one.
func (c *Client) Validate(svc any) error {
	methods, err := serviceMethods(svc)
	if err != nil {
		return err
	}
	for _, m := range methods {
		if _, err := c.loadPlan(m); err != nil {
			return err
		}
	}
	return nil
}

// Plan returns the compiled plan of the named func field of svc.
func (c *Client) Plan(svc any, field string) (*Plan, error) {
	methods, err := serviceMethods(svc)
	if err != nil {
		return nil, err
	}
	for _, m := range methods {
		if m.key.owner.Field(m.key.index).Name != field {
			continue
		}
		return c.loadPlan(m)
	}
	return nil, fmt.Errorf("%w: no method %q", ErrInvalidService, field)
}

func serviceMethods(svc any) ([]*serviceMethod, error) {
	rv := reflect.ValueOf(svc)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: want a non-nil pointer to a struct, got %T", ErrInvalidService, svc)
	}
	owner := rv.Elem().Type()
	var methods []*serviceMethod
	for i := 0; i < owner.NumField(); i++ {
		field := owner.Field(i)
		if !field.IsExported() || field.Type.Kind() != reflect.Func {
			continue
		}
		m, err := newServiceMethod(owner, i)
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, nil
}

// loadPlan returns the cached plan for m, compiling it on first use. At most
// one goroutine compiles a given method; failures are not cached.
func (c *Client) loadPlan(m *serviceMethod) (*Plan, error) {
	if p, ok := c.plans.Load(m.key); ok {
		return p.(*Plan), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.plans.Load(m.key); ok {
		return p.(*Plan), nil
	}
	plan, err := c.compile(m)
	if err != nil {
		c.logger.WithField("method", m.name).WithError(err).Warn("method compilation failed")
		return nil, err
	}
	c.plans.Store(m.key, plan)
	c.logger.WithFields(logrus.Fields{
		"method":    m.name,
		"operation": plan.operation,
		"template":  plan.template,
	}).Debug("compiled method")
	return plan, nil
}

// invoker returns the MakeFunc implementation of m.
func (c *Client) invoker(m *serviceMethod) func(args []reflect.Value) []reflect.Value {
	returnsError := m.fn.NumOut() == 2
	return func(args []reflect.Value) []reflect.Value {
		call, err := c.invoke(m, args)
		if err != nil {
			if !returnsError {
				panic(err)
			}
			return []reflect.Value{reflect.Zero(m.fn.Out(0)), reflect.ValueOf(&err).Elem()}
		}
		if returnsError {
			return []reflect.Value{call, reflect.Zero(errorType)}
		}
		return []reflect.Value{call}
	}
}

// invoke builds the Call a method invocation returns. Errors are synchronous
// usage or compilation failures; conversion failures become failed Calls.
func (c *Client) invoke(m *serviceMethod, args []reflect.Value) (reflect.Value, error) {
	plan, err := c.loadPlan(m)
	if err != nil {
		return reflect.Value{}, err
	}
	switch plan.operation {
	case OpCreate, OpRead:
	default:
		return reflect.Value{}, &MethodError{Method: m.name, Msg: fmt.Sprintf("%s is not dispatched", plan.operation), Err: ErrUnsupportedOperation}
	}

	out := m.fn.Out(0)
	call := reflect.New(out.Elem())
	cr := call.Interface().(callResult)

	req, err := plan.toRequest(args)
	if err != nil {
		var ce *ConversionError
		if !errors.As(err, &ce) {
			return reflect.Value{}, err
		}
		cr.bind(c.failure(plan, err), m.name)
		return call, nil
	}

	c.logger.WithFields(logrus.Fields{
		"method":    m.name,
		"operation": plan.operation,
		"location":  req.Location().String(),
	}).Debug("dispatching")
	cr.bind(c.execution(plan, req), m.name)
	return call, nil
}
