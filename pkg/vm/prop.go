package vm

import "strconv"

// GetProperty performs a generic, user-observable property read: own
// properties first, then the prototype chain, invoking accessors with the
// original receiver. May run user code and may return its error unchanged.
func (vm *VM) GetProperty(objVal Value, name string) (Value, error) {
	return vm.GetPropertyByKey(objVal, keyFromString(name))
}

// GetPropertyByKey is GetProperty for arbitrary key kinds (string or symbol).
func (vm *VM) GetPropertyByKey(objVal Value, key PropertyKey) (Value, error) {
	switch objVal.Type() {
	case TypeUndefined, TypeNull:
		return Undefined, vm.NewTypeError("Cannot read properties of " + objVal.TypeName() + " (reading '" + key.debugName() + "')")
	case TypeArray:
		arr := objVal.AsArray()
		if key.isString() {
			if idx, err := strconv.Atoi(key.name); err == nil {
				return arr.Get(idx), nil
			}
			if key.name == "length" {
				return IntegerValue(int32(arr.Length())), nil
			}
			if v, ok := arr.GetOwn(key.name); ok {
				return v, nil
			}
		}
		return vm.getFromChain(objVal, vm.ObjectPrototype, key)
	case TypeString:
		if key.isString() && key.name == "length" {
			return IntegerValue(int32(objVal.AsString().Length())), nil
		}
		return Undefined, nil
	case TypeNativeFunctionWithProps:
		props := objVal.AsNativeFunctionWithProps().Properties
		if v, ok := props.GetOwnByKey(key); ok {
			return v, nil
		}
		return Undefined, nil
	case TypeNativeFunction:
		return Undefined, nil
	case TypeObject, TypeRegExp:
		return vm.getFromChain(objVal, objVal, key)
	default:
		return Undefined, nil
	}
}

// getFromChain walks a prototype chain starting at start, reading on behalf
// of receiver (accessors see the receiver as this).
func (vm *VM) getFromChain(receiver Value, start Value, key PropertyKey) (Value, error) {
	cur := start
	for cur.IsObject() {
		po := cur.AsPlainObject()
		if po == nil {
			break
		}
		if getter, _, isAccessor := po.GetOwnAccessorByKey(key); isAccessor {
			if getter.Type() == TypeUndefined {
				return Undefined, nil
			}
			return vm.Call(getter, receiver, nil)
		}
		if v, ok := po.GetOwnByKey(key); ok {
			return v, nil
		}
		cur = po.Prototype()
	}
	return Undefined, nil
}

// SetProperty performs a generic, strict-mode property write. Setters run
// with the original receiver; rejected assignments (read-only properties,
// missing setters, non-extensible receivers) fail with a TypeError.
func (vm *VM) SetProperty(objVal Value, name string, value Value) error {
	return vm.SetPropertyByKey(objVal, keyFromString(name), value)
}

// SetPropertyByKey is SetProperty for arbitrary key kinds.
func (vm *VM) SetPropertyByKey(objVal Value, key PropertyKey, value Value) error {
	switch objVal.Type() {
	case TypeUndefined, TypeNull:
		return vm.NewTypeError("Cannot set properties of " + objVal.TypeName() + " (setting '" + key.debugName() + "')")
	case TypeArray:
		arr := objVal.AsArray()
		if key.isString() {
			if idx, err := strconv.Atoi(key.name); err == nil {
				if idx >= 0 && idx < arr.Length() {
					arr.Set(idx, value)
				} else {
					for arr.Length() < idx {
						arr.Append(Undefined)
					}
					arr.Append(value)
				}
				return nil
			}
			arr.SetOwn(key.name, value)
			return nil
		}
		return nil
	case TypeObject, TypeRegExp:
		return vm.setOnObject(objVal, key, value)
	default:
		return vm.NewTypeError("Cannot create property '" + key.debugName() + "' on " + objVal.TypeName())
	}
}

func (vm *VM) setOnObject(receiver Value, key PropertyKey, value Value) error {
	target := receiver.AsPlainObject()

	// Own property wins: data write or own setter.
	if _, setter, isAccessor := target.GetOwnAccessorByKey(key); isAccessor {
		if setter.Type() == TypeUndefined {
			return vm.NewTypeError("Cannot set property " + key.debugName() + " of object which has only a getter")
		}
		_, err := vm.Call(setter, receiver, []Value{value})
		return err
	}
	if _, writable, _, _, exists := target.GetOwnDescriptorByKey(key); exists {
		if !writable {
			return vm.NewTypeError("Cannot assign to read only property '" + key.debugName() + "' of object")
		}
		target.SetOwnByKey(key, value)
		return nil
	}

	// Inherited accessors and read-only data properties veto the write.
	cur := target.Prototype()
	for cur.IsObject() {
		po := cur.AsPlainObject()
		if po == nil {
			break
		}
		if _, setter, isAccessor := po.GetOwnAccessorByKey(key); isAccessor {
			if setter.Type() == TypeUndefined {
				return vm.NewTypeError("Cannot set property " + key.debugName() + " of object which has only a getter")
			}
			_, err := vm.Call(setter, receiver, []Value{value})
			return err
		}
		if _, writable, _, _, exists := po.GetOwnDescriptorByKey(key); exists {
			if !writable {
				return vm.NewTypeError("Cannot assign to read only property '" + key.debugName() + "' of object")
			}
			break
		}
		cur = po.Prototype()
	}

	if !target.extensible {
		return vm.NewTypeError("Cannot add property " + key.debugName() + ", object is not extensible")
	}
	target.SetOwnByKey(key, value)
	return nil
}
