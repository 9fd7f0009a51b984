package vm

import "unsafe"

// NativeFunctionObject is a callable implemented in Go. The error result
// carries thrown JS exceptions (see ExceptionError); Go-level errors are not
// distinguished from them anywhere in the runtime.
type NativeFunctionObject struct {
	Object
	Arity    int
	Variadic bool
	Name     string
	Fn       func(args []Value) (Value, error)
}

// NativeFunctionWithPropsObject is a native function that also carries own
// properties, used for constructors that expose .prototype and statics.
type NativeFunctionWithPropsObject struct {
	NativeFunctionObject
	Properties    *PlainObject
	IsConstructor bool
}

func NewNativeFunction(arity int, variadic bool, name string, fn func(args []Value) (Value, error)) Value {
	return Value{typ: TypeNativeFunction, obj: unsafe.Pointer(&NativeFunctionObject{
		Arity:    arity,
		Variadic: variadic,
		Name:     name,
		Fn:       fn,
	})}
}

// NewConstructorWithProps creates a constructor function with a property bag
// for .prototype and statics.
func NewConstructorWithProps(arity int, variadic bool, name string, fn func(args []Value) (Value, error)) Value {
	return Value{typ: TypeNativeFunctionWithProps, obj: unsafe.Pointer(&NativeFunctionWithPropsObject{
		NativeFunctionObject: NativeFunctionObject{
			Arity:    arity,
			Variadic: variadic,
			Name:     name,
			Fn:       fn,
		},
		Properties:    NewObject(Null).AsPlainObject(),
		IsConstructor: true,
	})}
}

func (v Value) nativeFn() *NativeFunctionObject {
	switch v.typ {
	case TypeNativeFunction:
		return (*NativeFunctionObject)(v.obj)
	case TypeNativeFunctionWithProps:
		return &(*NativeFunctionWithPropsObject)(v.obj).NativeFunctionObject
	}
	return nil
}

// Call invokes a callable value as a method of thisValue. The this binding is
// visible to the callee through GetThis for the duration of the call. Any
// error from the callee propagates unchanged.
func (vm *VM) Call(fn Value, thisValue Value, args []Value) (Value, error) {
	native := fn.nativeFn()
	if native == nil {
		return Undefined, vm.NewTypeError(fn.TypeName() + " is not a function")
	}
	vm.thisStack = append(vm.thisStack, thisValue)
	defer func() {
		vm.thisStack = vm.thisStack[:len(vm.thisStack)-1]
	}()
	return native.Fn(args)
}

// GetThis returns the this binding of the innermost active native call.
func (vm *VM) GetThis() Value {
	if len(vm.thisStack) == 0 {
		return Undefined
	}
	return vm.thisStack[len(vm.thisStack)-1]
}
