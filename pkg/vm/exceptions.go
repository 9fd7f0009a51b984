package vm

// ExceptionError is a Go error that carries a thrown JS exception value.
// Runtime operations never unwrap or rewrap these: the first error aborts the
// enclosing operation and travels to the caller unchanged.
type ExceptionError interface {
	error
	GetExceptionValue() Value
}

type exceptionError struct {
	exception Value
}

func (e exceptionError) Error() string {
	if e.exception.IsObject() {
		if po := e.exception.AsPlainObject(); po != nil {
			name, _ := po.GetOwn("name")
			message, _ := po.GetOwn("message")
			if name.Type() == TypeString {
				if message.Type() == TypeString && message.AsString().Length() > 0 {
					return name.ToString() + ": " + message.ToString()
				}
				return name.ToString()
			}
		}
	}
	return e.exception.ToString()
}

func (e exceptionError) GetExceptionValue() Value {
	return e.exception
}

// NewExceptionError wraps an arbitrary thrown value.
func (vm *VM) NewExceptionError(exception Value) error {
	return exceptionError{exception: exception}
}

func (vm *VM) newError(name, message string) error {
	eo := NewObject(vm.ErrorPrototype).AsPlainObject()
	eo.SetOwn("name", NewString(name))
	eo.SetOwn("message", NewString(message))
	return exceptionError{exception: NewValueFromPlainObject(eo)}
}

// NewTypeError constructs a TypeError exception error for builtin helpers to return
func (vm *VM) NewTypeError(message string) error {
	return vm.newError("TypeError", message)
}

// NewRangeError constructs a RangeError exception error
func (vm *VM) NewRangeError(message string) error {
	return vm.newError("RangeError", message)
}

// NewSyntaxError constructs a SyntaxError exception error
func (vm *VM) NewSyntaxError(message string) error {
	return vm.newError("SyntaxError", message)
}
