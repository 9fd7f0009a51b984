package builtins

import "jsrt/pkg/vm"

type ErrorInitializer struct{}

func (e *ErrorInitializer) Name() string {
	return "Error"
}

func (e *ErrorInitializer) Priority() int {
	return PriorityError
}

func (e *ErrorInitializer) InitRuntime(ctx *RuntimeContext) error {
	vmInstance := ctx.VM

	errorProto := vmInstance.ErrorPrototype.AsPlainObject()
	errorProto.SetOwnNonEnumerable("name", vm.NewString("Error"))
	errorProto.SetOwnNonEnumerable("message", vm.NewString(""))
	errorProto.SetOwnNonEnumerable("toString", vm.NewNativeFunction(0, false, "toString", func(args []vm.Value) (vm.Value, error) {
		this := vmInstance.GetThis()
		if !this.IsObject() {
			return vm.Undefined, vmInstance.NewTypeError("Error.prototype.toString called on non-object")
		}
		name, err := vmInstance.GetProperty(this, "name")
		if err != nil {
			return vm.Undefined, err
		}
		message, err := vmInstance.GetProperty(this, "message")
		if err != nil {
			return vm.Undefined, err
		}
		nameStr := "Error"
		if name.Type() != vm.TypeUndefined {
			nameStr = name.ToString()
		}
		msgStr := ""
		if message.Type() != vm.TypeUndefined {
			msgStr = message.ToString()
		}
		if msgStr == "" {
			return vm.NewString(nameStr), nil
		}
		if nameStr == "" {
			return vm.NewString(msgStr), nil
		}
		return vm.NewString(nameStr + ": " + msgStr), nil
	}))

	makeCtor := func(name string, proto *vm.PlainObject) vm.Value {
		ctor := vm.NewConstructorWithProps(1, false, name, func(args []vm.Value) (vm.Value, error) {
			eo := vm.NewObject(vm.NewValueFromPlainObject(proto)).AsPlainObject()
			if len(args) > 0 && args[0].Type() != vm.TypeUndefined {
				eo.SetOwnNonEnumerable("message", vm.NewString(args[0].ToString()))
			}
			return vm.NewValueFromPlainObject(eo), nil
		})
		proto.SetOwnNonEnumerable("constructor", ctor)
		ctor.AsNativeFunctionWithProps().Properties.SetOwnNonEnumerable("prototype", vm.NewValueFromPlainObject(proto))
		return ctor
	}

	if err := ctx.DefineGlobal("Error", makeCtor("Error", errorProto)); err != nil {
		return err
	}

	for _, name := range []string{"TypeError", "RangeError", "SyntaxError"} {
		proto := vm.NewObject(vmInstance.ErrorPrototype).AsPlainObject()
		proto.SetOwnNonEnumerable("name", vm.NewString(name))
		proto.SetOwnNonEnumerable("message", vm.NewString(""))
		if err := ctx.DefineGlobal(name, makeCtor(name, proto)); err != nil {
			return err
		}
	}
	return nil
}
