package vm

import (
	"fmt"
	"math"
	"strconv"
	"unsafe"
)

type ValueType uint8

const (
	TypeUndefined ValueType = iota
	TypeNull

	TypeString
	TypeSymbol

	TypeFloatNumber
	TypeIntegerNumber

	TypeBoolean

	TypeNativeFunction
	TypeNativeFunctionWithProps

	TypeObject

	TypeArray
	TypeRegExp
)

// String returns a human-readable string representation of the ValueType
func (vt ValueType) String() string {
	switch vt {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeString:
		return "string"
	case TypeSymbol:
		return "symbol"
	case TypeFloatNumber, TypeIntegerNumber:
		return "number"
	case TypeBoolean:
		return "boolean"
	case TypeNativeFunction, TypeNativeFunctionWithProps:
		return "native function"
	case TypeObject:
		return "object"
	case TypeArray:
		return "array"
	case TypeRegExp:
		return "regexp"
	default:
		return "unknown"
	}
}

// Value is a tagged value. Primitives live in payload; heap values hang off obj.
type Value struct {
	typ     ValueType
	payload uint64
	obj     unsafe.Pointer
}

var (
	Undefined = Value{typ: TypeUndefined}
	Null      = Value{typ: TypeNull}
	True      = Value{typ: TypeBoolean, payload: 1}
	False     = Value{typ: TypeBoolean, payload: 0}
)

func NumberValue(value float64) Value {
	return Value{typ: TypeFloatNumber, payload: math.Float64bits(value)}
}

func IntegerValue(value int32) Value {
	return Value{typ: TypeIntegerNumber, payload: uint64(int64(value))}
}

func BooleanValue(value bool) Value {
	if value {
		return True
	}
	return False
}

func NewSymbol(value string) Value {
	return Value{typ: TypeSymbol, obj: unsafe.Pointer(&SymbolObject{value: value})}
}

func NewArray() Value {
	return Value{typ: TypeArray, obj: unsafe.Pointer(&ArrayObject{})}
}

func (v Value) Type() ValueType {
	return v.typ
}

func (v Value) TypeName() string {
	switch v.typ {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		return "boolean"
	case TypeFloatNumber, TypeIntegerNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeSymbol:
		return "symbol"
	case TypeNativeFunction, TypeNativeFunctionWithProps:
		return "function"
	default:
		return "object"
	}
}

// IsObject reports whether the value is object-like (a JS Object in the ECMAScript
// sense). Primitives, undefined and null are not object-like.
func (v Value) IsObject() bool {
	return v.typ == TypeObject || v.typ == TypeArray || v.typ == TypeRegExp ||
		v.typ == TypeNativeFunction || v.typ == TypeNativeFunctionWithProps
}

func (v Value) IsCallable() bool {
	return v.typ == TypeNativeFunction || v.typ == TypeNativeFunctionWithProps
}

func (v Value) IsNumber() bool {
	return v.typ == TypeIntegerNumber || v.typ == TypeFloatNumber
}

func (v Value) IsIntegerNumber() bool {
	return v.typ == TypeIntegerNumber
}

func (v Value) IsArray() bool {
	return v.typ == TypeArray
}

func (v Value) AsInteger() int32 {
	return int32(int64(v.payload))
}

func (v Value) AsFloat() float64 {
	return math.Float64frombits(v.payload)
}

func (v Value) AsBoolean() bool {
	return v.payload != 0
}

func (v Value) AsString() *StringObject {
	if v.typ != TypeString {
		panic("value is not a string")
	}
	return (*StringObject)(v.obj)
}

func (v Value) AsSymbol() string {
	if v.typ != TypeSymbol {
		panic("value is not a symbol")
	}
	return (*SymbolObject)(v.obj).value
}

func (v Value) AsPlainObject() *PlainObject {
	switch v.typ {
	case TypeObject:
		return (*PlainObject)(v.obj)
	case TypeRegExp:
		return &(*RegExpObject)(v.obj).PlainObject
	}
	return nil
}

func (v Value) AsArray() *ArrayObject {
	if v.typ != TypeArray {
		panic("value is not an array")
	}
	return (*ArrayObject)(v.obj)
}

func (v Value) AsNativeFunction() *NativeFunctionObject {
	if v.typ != TypeNativeFunction {
		panic("value is not a native function")
	}
	return (*NativeFunctionObject)(v.obj)
}

func (v Value) AsNativeFunctionWithProps() *NativeFunctionWithPropsObject {
	if v.typ != TypeNativeFunctionWithProps {
		panic("value is not a native function with props")
	}
	return (*NativeFunctionWithPropsObject)(v.obj)
}

// Is reports identity (SameValue for heap values, bit equality for primitives).
func (v Value) Is(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	if v.obj != nil || other.obj != nil {
		return v.obj == other.obj
	}
	return v.payload == other.payload
}

func (v Value) ToString() string {
	switch v.typ {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		if v.AsBoolean() {
			return "true"
		}
		return "false"
	case TypeIntegerNumber:
		return strconv.FormatInt(int64(v.AsInteger()), 10)
	case TypeFloatNumber:
		f := v.AsFloat()
		if math.IsNaN(f) {
			return "NaN"
		}
		if math.IsInf(f, 1) {
			return "Infinity"
		}
		if math.IsInf(f, -1) {
			return "-Infinity"
		}
		if f == math.Trunc(f) && math.Abs(f) < 1e21 {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	case TypeString:
		return (*StringObject)(v.obj).value
	case TypeSymbol:
		return fmt.Sprintf("Symbol(%s)", (*SymbolObject)(v.obj).value)
	case TypeNativeFunction:
		return fmt.Sprintf("function %s() { [native code] }", (*NativeFunctionObject)(v.obj).Name)
	case TypeNativeFunctionWithProps:
		return fmt.Sprintf("function %s() { [native code] }", (*NativeFunctionWithPropsObject)(v.obj).Name)
	case TypeRegExp:
		r := (*RegExpObject)(v.obj)
		return "/" + r.source + "/" + r.flags
	case TypeArray:
		return "[object Array]"
	default:
		return "[object Object]"
	}
}

func (v Value) ToFloat() float64 {
	switch v.typ {
	case TypeIntegerNumber:
		return float64(v.AsInteger())
	case TypeFloatNumber:
		return v.AsFloat()
	case TypeNull:
		return 0
	case TypeUndefined:
		return math.NaN()
	case TypeBoolean:
		if v.AsBoolean() {
			return 1
		}
		return 0
	case TypeString:
		s := (*StringObject)(v.obj).value
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func (v Value) ToBoolean() bool {
	switch v.typ {
	case TypeUndefined, TypeNull:
		return false
	case TypeBoolean:
		return v.AsBoolean()
	case TypeIntegerNumber:
		return v.AsInteger() != 0
	case TypeFloatNumber:
		f := v.AsFloat()
		return f != 0 && !math.IsNaN(f)
	case TypeString:
		return len((*StringObject)(v.obj).units) != 0
	default:
		return true
	}
}

// MaxSafeInteger is 2^53-1, the upper bound of length values.
const MaxSafeInteger = float64(1<<53 - 1)

// ToPrimitive converts an object-like value to a primitive, invoking the
// object's valueOf/toString in the usual order. May run user code.
func (vm *VM) ToPrimitive(v Value, hint string) (Value, error) {
	if !v.IsObject() {
		return v, nil
	}
	methods := []string{"valueOf", "toString"}
	if hint == "string" {
		methods = []string{"toString", "valueOf"}
	}
	for _, name := range methods {
		method, err := vm.GetProperty(v, name)
		if err != nil {
			return Undefined, err
		}
		if method.IsCallable() {
			result, err := vm.Call(method, v, nil)
			if err != nil {
				return Undefined, err
			}
			if !result.IsObject() {
				return result, nil
			}
		}
	}
	return Undefined, vm.NewTypeError("Cannot convert object to primitive value")
}

// ToLength implements the ECMAScript length coercion: coerce to number (which may
// run user code for objects), then clamp to [0, 2^53-1].
func (vm *VM) ToLength(v Value) (uint64, error) {
	if v.typ == TypeSymbol {
		return 0, vm.NewTypeError("Cannot convert a Symbol value to a number")
	}
	if v.IsObject() {
		prim, err := vm.ToPrimitive(v, "number")
		if err != nil {
			return 0, err
		}
		if prim.typ == TypeSymbol {
			return 0, vm.NewTypeError("Cannot convert a Symbol value to a number")
		}
		v = prim
	}
	f := v.ToFloat()
	if math.IsNaN(f) || f <= 0 {
		return 0, nil
	}
	f = math.Trunc(f)
	if f > MaxSafeInteger {
		f = MaxSafeInteger
	}
	return uint64(f), nil
}

type SymbolObject struct {
	Object
	value string
}

// ArrayObject backs match-result arrays. Besides indexed elements it carries
// the named properties a match result needs (index, input, groups).
type ArrayObject struct {
	Object
	elements []Value
	props    map[string]Value
	order    []string
}

func (a *ArrayObject) Length() int {
	return len(a.elements)
}

func (a *ArrayObject) Append(v Value) {
	a.elements = append(a.elements, v)
}

func (a *ArrayObject) Get(index int) Value {
	if index < 0 || index >= len(a.elements) {
		return Undefined
	}
	return a.elements[index]
}

func (a *ArrayObject) Set(index int, v Value) {
	if index >= 0 && index < len(a.elements) {
		a.elements[index] = v
	}
}

// SetOwn sets a named (non-index) property on the array.
func (a *ArrayObject) SetOwn(name string, v Value) {
	if a.props == nil {
		a.props = make(map[string]Value)
	}
	if _, exists := a.props[name]; !exists {
		a.order = append(a.order, name)
	}
	a.props[name] = v
}

func (a *ArrayObject) GetOwn(name string) (Value, bool) {
	v, ok := a.props[name]
	return v, ok
}

func NewValueFromPlainObject(plainObj *PlainObject) Value {
	return Value{typ: TypeObject, obj: unsafe.Pointer(plainObj)}
}
