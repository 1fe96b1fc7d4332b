package drivekit

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"slices"
	"strings"
)

const paramNamePattern = `[a-zA-Z][a-zA-Z0-9_-]*`

var (
	paramURL     = regexp.MustCompile(`\{(` + paramNamePattern + `)\}`)
	paramNameRex = regexp.MustCompile(`^` + paramNamePattern + `$`)

	callResultType = reflect.TypeFor[callResult]()
	errorType      = reflect.TypeFor[error]()
)

// methodKey identifies a declared method: the service struct type and the
// field index.
type methodKey struct {
	owner reflect.Type
	index int
}

// serviceMethod is a func-typed field of a service struct.
type serviceMethod struct {
	key         methodKey
	name        string
	fn          reflect.Type
	annotations Annotations
}

func newServiceMethod(owner reflect.Type, index int) (*serviceMethod, error) {
	field := owner.Field(index)
	m := &serviceMethod{
		key:  methodKey{owner: owner, index: index},
		name: owner.Name() + "." + field.Name,
		fn:   field.Type,
	}
	ann, err := parseMethodAnnotations(string(field.Tag))
	if err != nil {
		return nil, m.errorf(0, err, "malformed struct tag")
	}
	m.annotations = ann
	return m, nil
}

func (m *serviceMethod) errorf(param int, cause error, format string, args ...any) *MethodError {
	return &MethodError{Method: m.name, Param: param, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// Plan is the immutable, compiled form of a service method.
type Plan struct {
	method       string
	operation    Operation
	template     string
	placeholders []string
	query        url.Values
	contentType  string
	encoding     string
	binders      []binder
	resultType   reflect.Type
	returnsError bool
	response     ResponseConverter
	scheme       Scheme
}

// Method returns the Owner.Field name of the compiled method.
func (p *Plan) Method() string { return p.method }

// Operation returns the operation kind.
func (p *Plan) Operation() Operation { return p.operation }

// Template returns the path template without its static query.
func (p *Plan) Template() string { return p.template }

// Placeholders returns the template placeholders in order of first appearance.
func (p *Plan) Placeholders() []string {
	return append([]string(nil), p.placeholders...)
}

// ContentType returns the content-type tag requests are built with.
func (p *Plan) ContentType() string { return p.contentType }

// ResultType returns the element type T of the method's *Call[T].
func (p *Plan) ResultType() reflect.Type { return p.resultType }

// planCompiler holds the transient state of one compilation.
type planCompiler struct {
	client *Client
	method *serviceMethod

	operation    Operation
	hasBody      bool
	encoding     string
	template     string
	placeholders []string
	query        url.Values

	gotBody    bool
	gotPart    bool
	gotField   bool
	pathParams map[string]int // placeholder name to the parameter binding it
}

func (c *Client) compile(m *serviceMethod) (*Plan, error) {
	pc := &planCompiler{client: c, method: m}
	return pc.compile()
}

func (pc *planCompiler) compile() (*Plan, error) {
	m := pc.method

	resultType, returnsError, err := pc.returnShape()
	if err != nil {
		return nil, err
	}
	response, err := pc.client.ResponseConverter(resultType, m.annotations)
	if err != nil {
		return nil, m.errorf(0, err, "unable to create converter for %v", resultType)
	}

	if err := pc.parseOperation(); err != nil {
		return nil, err
	}
	if pc.operation == OpCreate && !resourceIDType.AssignableTo(resultType) {
		return nil, m.errorf(0, nil, "%s methods must return *Call[%v], not *Call[%v]", OpCreate, resourceIDType, resultType)
	}

	contentType, ok := m.annotations.Get(tagMime)
	if !ok || contentType == "" {
		contentType = DefaultContentType
	}

	binders, err := pc.parseParameters()
	if err != nil {
		return nil, err
	}

	if pc.template == "" {
		return nil, m.errorf(0, nil, "missing path template for %s", pc.operation)
	}
	if !pc.hasBody && pc.gotBody {
		return nil, m.errorf(0, nil, "non-body operation cannot contain @Body")
	}
	if pc.encoding == "form" && !pc.gotField {
		return nil, m.errorf(0, nil, "form-encoded method must contain at least one field")
	}
	if pc.encoding == "multipart" && !pc.gotPart {
		return nil, m.errorf(0, nil, "multipart method must contain at least one part")
	}
	if unbound := pc.unboundPlaceholders(binders); len(unbound) > 0 {
		return nil, m.errorf(0, nil, "path template %q has unbound placeholders: %s", pc.template, strings.Join(unbound, ", "))
	}

	return &Plan{
		method:       m.name,
		operation:    pc.operation,
		template:     pc.template,
		placeholders: pc.placeholders,
		query:        pc.query,
		contentType:  contentType,
		encoding:     pc.encoding,
		binders:      binders,
		resultType:   resultType,
		returnsError: returnsError,
		response:     response,
		scheme:       pc.client.scope.Scheme(),
	}, nil
}

// returnShape checks that the method returns *Call[T] or (*Call[T], error)
// and returns T.
func (pc *planCompiler) returnShape() (reflect.Type, bool, error) {
	fn := pc.method.fn
	if fn.Kind() != reflect.Func {
		return nil, false, pc.method.errorf(0, nil, "unsupported return type: %v is not a func", fn)
	}
	var returnsError bool
	switch fn.NumOut() {
	case 1:
	case 2:
		if fn.Out(1) != errorType {
			return nil, false, pc.method.errorf(0, nil, "unsupported return type: second result must be error, got %v", fn.Out(1))
		}
		returnsError = true
	default:
		return nil, false, pc.method.errorf(0, nil, "unsupported return type: want *Call[T] or (*Call[T], error)")
	}
	out := fn.Out(0)
	if out.Kind() != reflect.Pointer || !out.Implements(callResultType) {
		return nil, false, pc.method.errorf(0, nil, "unsupported return type %v: want *Call[T]", out)
	}
	cr := reflect.New(out.Elem()).Interface().(callResult)
	return cr.resultType(), returnsError, nil
}

func (pc *planCompiler) parseOperation() error {
	m := pc.method
	var found string
	for _, an := range m.annotations {
		op, ok := operationTags[an.Key]
		if !ok {
			continue
		}
		if found != "" {
			return m.errorf(0, nil, "only one operation is allowed. Found: %s and %s", found, an.Key)
		}
		found = an.Key
		pc.operation = op
		pc.hasBody = op.HasBody()
		if err := pc.parsePath(an.Value); err != nil {
			return err
		}
	}
	if found == "" {
		return m.errorf(0, nil, "operation annotation is required (e.g. %s, %s)", tagCreate, tagRead)
	}

	if enc, ok := m.annotations.Get(tagEncoding); ok {
		switch enc {
		case "form", "multipart":
		default:
			return m.errorf(0, nil, "unknown encoding %q, want form or multipart", enc)
		}
		if !pc.hasBody {
			return m.errorf(0, nil, "%s can only be specified on operations with a request body (e.g. %s)", enc, tagCreate)
		}
		pc.encoding = enc
	}
	return nil
}

func (pc *planCompiler) parsePath(value string) error {
	if value == "" {
		return nil
	}
	p, query, hasQuery := strings.Cut(value, "?")
	if hasQuery && query != "" {
		if paramURL.MatchString(query) {
			return pc.method.errorf(0, nil, "URL query string %q must not have replace block. For dynamic query parameters use a path parameter", query)
		}
		q, err := url.ParseQuery(query)
		if err != nil {
			return pc.method.errorf(0, err, "malformed URL query string %q", query)
		}
		pc.query = q
	}
	pc.template = p
	pc.placeholders = parsePathParameters(p)
	return nil
}

// parsePathParameters returns the placeholder names of a path template in
// order of first appearance.
func parsePathParameters(path string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, match := range paramURL.FindAllStringSubmatch(path, -1) {
		name := match[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

func (pc *planCompiler) parseParameters() ([]binder, error) {
	m := pc.method
	fn := m.fn
	if fn.IsVariadic() {
		return nil, m.errorf(0, nil, "variadic methods are not supported")
	}
	params, _ := m.annotations.Get(tagParams)
	paramAnnotations, err := parseParamAnnotations(params, fn.NumIn())
	if err != nil {
		return nil, m.errorf(0, err, "malformed params tag")
	}

	binders := make([]binder, fn.NumIn())
	for i := range binders {
		var found binder
		for _, an := range paramAnnotations[i] {
			b, err := pc.parseParameterAnnotation(i+1, fn.In(i), an, paramAnnotations[i])
			if err != nil {
				return nil, err
			}
			if b == nil {
				continue
			}
			if found != nil {
				return nil, m.errorf(i+1, nil, "multiple annotations found, only one allowed")
			}
			found = b
		}
		if found == nil {
			return nil, m.errorf(i+1, nil, "no annotation found")
		}
		binders[i] = found
	}
	return binders, nil
}

// parseParameterAnnotation returns the binder for one parameter annotation,
// or nil when the annotation binds nothing.
func (pc *planCompiler) parseParameterAnnotation(param int, typ reflect.Type, an Annotation, all Annotations) (binder, error) {
	m := pc.method
	switch an.Key {
	case paramPath:
		if pc.template == "" {
			return nil, m.errorf(param, nil, "path parameter requires a path template on the %s annotation", strings.ToLower(string(pc.operation)))
		}
		name, flag, _ := strings.Cut(an.Value, ":")
		if !paramNameRex.MatchString(name) {
			return nil, m.errorf(param, nil, "path parameter name must match %s. Found: %s", paramURL, name)
		}
		if !slices.Contains(pc.placeholders, name) {
			return nil, m.errorf(param, nil, "path %q does not contain \"{%s}\"", pc.template, name)
		}
		if prev, ok := pc.pathParams[name]; ok {
			return nil, m.errorf(param, nil, "path parameter \"{%s}\" already bound by parameter #%d", name, prev)
		}
		encoded := false
		switch flag {
		case "":
		case "encoded":
			encoded = true
		default:
			return nil, m.errorf(param, nil, "unknown path parameter flag %q", flag)
		}
		if pc.pathParams == nil {
			pc.pathParams = make(map[string]int)
		}
		pc.pathParams[name] = param
		return &pathBinder{method: m.name, param: param, name: name, encoded: encoded}, nil

	case paramBody:
		if pc.encoding != "" {
			return nil, m.errorf(param, nil, "body parameters cannot be used with %s encoding", pc.encoding)
		}
		if !pc.hasBody {
			return nil, m.errorf(param, nil, "non-body operation cannot contain @Body")
		}
		if pc.gotBody {
			return nil, m.errorf(param, nil, "multiple @Body method annotations found")
		}
		conv, err := pc.client.RequestBodyConverter(typ, all, m.annotations)
		if err != nil {
			return nil, m.errorf(param, err, "unable to create @Body converter for %v", typ)
		}
		pc.gotBody = true
		return &bodyBinder{method: m.name, param: param, typ: typ, converter: conv}, nil
	}
	return nil, nil
}

func (pc *planCompiler) unboundPlaceholders(binders []binder) []string {
	bound := make(map[string]bool, len(binders))
	for _, b := range binders {
		if pb, ok := b.(*pathBinder); ok {
			bound[pb.name] = true
		}
	}
	var unbound []string
	for _, name := range pc.placeholders {
		if !bound[name] {
			unbound = append(unbound, name)
		}
	}
	return unbound
}
