// Package filterexpr compiles a CEL filter expression plus an order_by
// string into a typed query-params struct, the shape the dictionary and
// geoword administrative list endpoints use to turn a user-supplied
// "filter" string (e.g. `dictionary_id == 3 && ne_class.startsWith("都道")`)
// into bound SQL predicates without hand-rolling a parser per resource.
package filterexpr

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// Msg is the minimal shape Bind needs from a request: the raw filter and
// order_by strings. The dictionary/geoword query surface satisfies this
// with a small internal filterMsg wrapper rather than a generated DTO,
// since the engine is a library, not a generated RPC service.
type Msg interface {
	GetFilter() string
	GetOrderBy() string
}

// ValueKind names the literal type a schema field accepts on the
// right-hand side of a comparison.
type ValueKind string

const (
	KindString    ValueKind = "string"
	KindNumber    ValueKind = "number"
	KindTimestamp ValueKind = "timestamp"
)

// Op is one CEL comparison/membership operator a FilterField may allow.
type Op string

const (
	OpEQ  Op = "=="
	OpGTE Op = ">="
	OpLTE Op = "<="
	OpSW  Op = "startsWith"
	OpIN  Op = "in"
)

// SetterFunc lets a schema field override assignValue's built-in
// string/number/timestamp coercion for the one destination field it is
// handed, e.g. to upper-case a class code.
type SetterFunc func(field reflect.Value, value any) error

// FilterField binds one CEL variable name to a destination struct field
// per allowed operator, and the literal kind the right-hand side must be.
type FilterField struct {
	Expr   string
	Kind   ValueKind
	Ops    map[Op]string
	Setter SetterFunc
}

// OrderField maps one order_by key to the SQL column/expression it sorts
// on, e.g. "name" -> "json_extract(json, '$.name')" for a JSON-blob table.
type OrderField struct {
	Expr  string
	Nulls string
}

// OrderSchema whitelists the keys a resource's order_by accepts and the
// stable secondary sort used to break ties when the caller names none.
type OrderSchema struct {
	DefaultPrimary     string
	DefaultPrimaryDesc bool
	FallbackKey        string
	FallbackDesc       bool
	Fields             map[string]OrderField
}

// ResourceSchema is the filter/order contract for one administrative
// query surface (dictionary or geoword), handed to Bind alongside the
// request and the destination params struct.
type ResourceSchema struct {
	Filter map[string]FilterField
	Order  OrderSchema
}

var timeType = reflect.TypeOf(time.Time{})

// Bind parses req's filter and order_by against schema and populates
// dst's matching fields, returning the first validation failure as an
// error a RunE/handler can surface directly to the caller.
func Bind[M Msg, P any](req M, dst *P, schema ResourceSchema) error {
	if dst == nil {
		return errors.New("binding must not be nil")
	}

	if err := bindFilter(dst, req.GetFilter(), schema.Filter); err != nil {
		return fmt.Errorf("filter: %w", err)
	}

	order, err := parseOrderBy(req.GetOrderBy(), schema.Order)
	if err != nil {
		return fmt.Errorf("order_by: %w", err)
	}
	return setOrderParams(dst, order)
}

// filterPredicate is one atomic "field op literal" comparison extracted
// from the parsed CEL AST.
type filterPredicate struct {
	Field string
	Op    Op
	Value any
}

func bindFilter(dst any, filter string, fields map[string]FilterField) error {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil
	}
	if len(fields) == 0 {
		return errors.New("filter schema has no fields defined")
	}

	env, err := newCelEnv(fields)
	if err != nil {
		return err
	}

	ast, issues := env.Parse(filter)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("invalid filter: %w", issues.Err())
	}
	parsed, err := cel.AstToParsedExpr(ast)
	if err != nil {
		return fmt.Errorf("failed to convert AST: %w", err)
	}
	preds, err := splitConjuncts(parsed.GetExpr())
	if err != nil {
		return err
	}

	target := reflect.ValueOf(dst)
	if target.Kind() != reflect.Ptr || target.IsNil() {
		return errors.New("binding must be a non-nil pointer")
	}
	target = target.Elem()
	if target.Kind() != reflect.Struct {
		return errors.New("binding must point to a struct")
	}

	for _, expr := range preds {
		pred, err := parsePredicate(expr)
		if err != nil {
			return err
		}

		rule, ok := fields[pred.Field]
		if !ok {
			return fmt.Errorf("field %q is not allowed", pred.Field)
		}
		targetName, ok := rule.Ops[pred.Op]
		if !ok {
			return fmt.Errorf("operator %q is not allowed for field %q", string(pred.Op), pred.Field)
		}
		if err := validateLiteral(rule.Kind, pred.Op, pred.Value); err != nil {
			return fmt.Errorf("field %q: %w", pred.Field, err)
		}

		field := target.FieldByName(targetName)
		if !field.IsValid() {
			return fmt.Errorf("params struct %s has no field named %q", target.Type(), targetName)
		}
		if !field.CanSet() {
			return fmt.Errorf("cannot set field %q on params struct", targetName)
		}

		if rule.Setter != nil {
			if err := callSetter(rule.Setter, field, pred.Value); err != nil {
				return fmt.Errorf("setter for field %q failed: %w", targetName, err)
			}
			continue
		}
		if err := assignValue(field, pred.Value); err != nil {
			return fmt.Errorf("failed to assign field %q: %w", targetName, err)
		}
	}

	return nil
}

func newCelEnv(fields map[string]FilterField) (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(fields)+1)
	for name, rule := range fields {
		t, err := celType(rule.Kind)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		opts = append(opts, cel.Variable(name, t))
	}
	opts = append(opts, cel.CrossTypeNumericComparisons(true))

	// cel-go v0.26.1 exposes no EnvOption for variadic logical operators;
	// splitConjuncts flattens the default nested-binary AND tree instead.
	return cel.NewEnv(opts...)
}

func celType(kind ValueKind) (*cel.Type, error) {
	switch kind {
	case KindString:
		return cel.StringType, nil
	case KindNumber:
		return cel.DoubleType, nil
	case KindTimestamp:
		return cel.TimestampType, nil
	default:
		return nil, fmt.Errorf("unsupported field kind %s", kind)
	}
}

// splitConjuncts flattens a top-level AND chain into its operands,
// rejecting OR/ternary/NOT: the dictionary/geoword query surface only
// ever needs to narrow a result set, never to express alternatives.
func splitConjuncts(expr *exprpb.Expr) ([]*exprpb.Expr, error) {
	if expr == nil {
		return nil, errors.New("empty expression")
	}

	call := expr.GetCallExpr()
	if call == nil {
		return []*exprpb.Expr{expr}, nil
	}

	switch call.Function {
	case "_&&_":
		if len(call.Args) < 2 || call.Target != nil {
			return nil, errors.New("logical AND must have at least two operands")
		}
		var out []*exprpb.Expr
		for _, arg := range call.Args {
			parts, err := splitConjuncts(arg)
			if err != nil {
				return nil, err
			}
			out = append(out, parts...)
		}
		return out, nil
	case "_||_", "_?_:_", "!":
		return nil, fmt.Errorf("logical operator %q is not supported; only AND is allowed", call.Function)
	default:
		return []*exprpb.Expr{expr}, nil
	}
}

func parsePredicate(expr *exprpb.Expr) (filterPredicate, error) {
	call := expr.GetCallExpr()
	if call == nil {
		return filterPredicate{}, errors.New("unsupported expression; expected comparison or function call")
	}

	switch call.Function {
	case "_==_":
		return parseBinaryPredicate(call, OpEQ)
	case "_>=_":
		return parseBinaryPredicate(call, OpGTE)
	case "_<=_":
		return parseBinaryPredicate(call, OpLTE)
	case "_in_", "@in":
		return parseInPredicate(call)
	case "startsWith":
		return parseStartsWithPredicate(call)
	default:
		return filterPredicate{}, fmt.Errorf("function %q is not supported", call.Function)
	}
}

func parseBinaryPredicate(call *exprpb.Expr_Call, op Op) (filterPredicate, error) {
	if call.Target != nil || len(call.Args) != 2 {
		return filterPredicate{}, fmt.Errorf("operator %q expects two operands", string(op))
	}
	field, err := identName(call.Args[0])
	if err != nil {
		return filterPredicate{}, err
	}
	value, err := literalValue(call.Args[1])
	if err != nil {
		return filterPredicate{}, err
	}
	return filterPredicate{Field: field, Op: op, Value: value}, nil
}

func parseInPredicate(call *exprpb.Expr_Call) (filterPredicate, error) {
	var fieldExpr, listExpr *exprpb.Expr
	if call.Target != nil {
		if len(call.Args) != 1 {
			return filterPredicate{}, errors.New("in operator with receiver must have exactly one argument")
		}
		listExpr, fieldExpr = call.Target, call.Args[0]
	} else {
		if len(call.Args) != 2 {
			return filterPredicate{}, errors.New("in operator expects two operands")
		}
		fieldExpr, listExpr = call.Args[0], call.Args[1]
	}

	field, err := identName(fieldExpr)
	if err != nil {
		return filterPredicate{}, err
	}
	value, err := literalValue(listExpr)
	if err != nil {
		return filterPredicate{}, err
	}
	return filterPredicate{Field: field, Op: OpIN, Value: value}, nil
}

func parseStartsWithPredicate(call *exprpb.Expr_Call) (filterPredicate, error) {
	var fieldExpr, valueExpr *exprpb.Expr
	if call.Target != nil {
		if len(call.Args) != 1 {
			return filterPredicate{}, errors.New("startsWith with receiver must have exactly one argument")
		}
		fieldExpr, valueExpr = call.Target, call.Args[0]
	} else {
		if len(call.Args) != 2 {
			return filterPredicate{}, errors.New("startsWith must have exactly two arguments")
		}
		fieldExpr, valueExpr = call.Args[0], call.Args[1]
	}

	field, err := identName(fieldExpr)
	if err != nil {
		return filterPredicate{}, err
	}
	value, err := literalValue(valueExpr)
	if err != nil {
		return filterPredicate{}, err
	}
	str, ok := value.(string)
	if !ok {
		return filterPredicate{}, errors.New("startsWith requires a string literal argument")
	}
	return filterPredicate{Field: field, Op: OpSW, Value: str}, nil
}

func identName(expr *exprpb.Expr) (string, error) {
	ident := expr.GetIdentExpr()
	if ident == nil {
		return "", errors.New("left-hand side must be an identifier")
	}
	return ident.GetName(), nil
}

func literalValue(expr *exprpb.Expr) (any, error) {
	if constant := expr.GetConstExpr(); constant != nil {
		switch constant.ConstantKind.(type) {
		case *exprpb.Constant_StringValue:
			return constant.GetStringValue(), nil
		case *exprpb.Constant_Int64Value:
			return float64(constant.GetInt64Value()), nil
		case *exprpb.Constant_Uint64Value:
			return float64(constant.GetUint64Value()), nil
		case *exprpb.Constant_DoubleValue:
			return constant.GetDoubleValue(), nil
		default:
			return nil, fmt.Errorf("literal type %T is not supported", constant.ConstantKind)
		}
	}

	if list := expr.GetListExpr(); list != nil {
		elements := list.GetElements()
		values := make([]string, len(elements))
		for i, elem := range elements {
			val, err := literalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("list literal element %d: %w", i, err)
			}
			str, ok := val.(string)
			if !ok {
				return nil, errors.New("list literal elements must be strings")
			}
			values[i] = str
		}
		return values, nil
	}

	if call := expr.GetCallExpr(); call != nil && call.Function == "timestamp" {
		return parseTimestampLiteral(call)
	}

	return nil, errors.New("right-hand side must be a literal, list literal, or timestamp() call")
}

// parseTimestampLiteral parses a CEL timestamp("...") literal, used by
// the geoword schema's valid_from/valid_to date-range predicates.
func parseTimestampLiteral(call *exprpb.Expr_Call) (any, error) {
	if call.Target != nil || len(call.Args) != 1 {
		return nil, errors.New("timestamp() expects a single string argument")
	}
	arg := call.Args[0].GetConstExpr()
	if arg == nil {
		return nil, errors.New("timestamp() argument must be a string literal")
	}
	str := arg.GetStringValue()
	if str == "" {
		return nil, errors.New("timestamp() argument must not be empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, str); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, str); err == nil {
		return t, nil
	}
	return nil, fmt.Errorf("timestamp literal %q is not RFC3339", str)
}

func validateLiteral(kind ValueKind, op Op, value any) error {
	switch kind {
	case KindString:
		if op == OpIN {
			list, ok := value.([]string)
			if !ok {
				return fmt.Errorf("expected list of %s literals", kind)
			}
			if len(list) == 0 {
				return errors.New("list literal must not be empty")
			}
			for _, item := range list {
				if item == "" {
					return errors.New("list literal must not contain empty strings")
				}
			}
			return nil
		}
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected %s literal", kind)
		}
	case KindNumber:
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("expected %s literal", kind)
		}
	case KindTimestamp:
		if _, ok := value.(time.Time); !ok {
			return fmt.Errorf("expected %s literal", kind)
		}
	default:
		return fmt.Errorf("unsupported field kind %s", kind)
	}
	return nil
}

func callSetter(setter SetterFunc, field reflect.Value, value any) error {
	if field.Kind() == reflect.Ptr && field.IsNil() {
		field.Set(reflect.New(field.Type().Elem()))
	}
	return setter(field, value)
}

func assignValue(field reflect.Value, value any) error {
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return assignValue(field.Elem(), value)
	}
	if field.Kind() == reflect.Interface {
		field.Set(reflect.ValueOf(value))
		return nil
	}

	switch v := value.(type) {
	case string:
		if field.Kind() != reflect.String {
			return fmt.Errorf("expected string-compatible destination, got %s", field.Kind())
		}
		field.SetString(v)
	case []string:
		if field.Kind() != reflect.Slice || field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("expected slice of strings destination, got %s", field.Type())
		}
		clone := make([]string, len(v))
		copy(clone, v)
		field.Set(reflect.ValueOf(clone))
	case float64:
		return assignNumeric(field, v)
	case time.Time:
		if field.Type() != timeType {
			return fmt.Errorf("expected time.Time destination, got %s", field.Type())
		}
		field.Set(reflect.ValueOf(v))
	default:
		return fmt.Errorf("unsupported literal type %T", value)
	}
	return nil
}

func assignNumeric(field reflect.Value, value float64) error {
	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		field.SetFloat(value)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if math.Trunc(value) != value {
			return fmt.Errorf("cannot assign non-integer value %v to integer field", value)
		}
		bits := field.Type().Bits()
		lo, hi := -1<<(bits-1), (1<<(bits-1))-1
		if value < float64(lo) || value > float64(hi) {
			return fmt.Errorf("value %v overflows integer field", value)
		}
		field.SetInt(int64(value))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if math.Trunc(value) != value {
			return fmt.Errorf("cannot assign non-integer value %v to unsigned integer field", value)
		}
		if value < 0 {
			return fmt.Errorf("cannot assign negative value %v to unsigned integer field", value)
		}
		bits := field.Type().Bits()
		max := (uint64(1) << bits) - 1
		if value > float64(max) {
			return fmt.Errorf("value %v overflows unsigned integer field", value)
		}
		field.SetUint(uint64(value))
		return nil
	default:
		return fmt.Errorf("numeric assignment requires integer or float field, got %s", field.Kind())
	}
}
