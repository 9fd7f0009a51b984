package vm

import "testing"

func TestGetPropertyNullish(t *testing.T) {
	vmInstance := NewVM()
	for _, v := range []Value{Undefined, Null} {
		_, err := vmInstance.GetProperty(v, "x")
		if name := errorName(t, err); name != "TypeError" {
			t.Errorf("reading from %v: error name = %q, want TypeError", v.ToString(), name)
		}
	}
}

func TestGetPropertyChain(t *testing.T) {
	vmInstance := NewVM()
	proto := NewObject(vmInstance.ObjectPrototype)
	proto.AsPlainObject().SetOwn("inherited", IntegerValue(1))
	child := NewObject(proto)
	child.AsPlainObject().SetOwn("own", IntegerValue(2))

	v, err := vmInstance.GetProperty(child, "own")
	if err != nil || v.AsInteger() != 2 {
		t.Errorf("own = %v, %v, want 2, nil", v.ToString(), err)
	}
	v, err = vmInstance.GetProperty(child, "inherited")
	if err != nil || v.AsInteger() != 1 {
		t.Errorf("inherited = %v, %v, want 1, nil", v.ToString(), err)
	}
	v, err = vmInstance.GetProperty(child, "missing")
	if err != nil || v.Type() != TypeUndefined {
		t.Errorf("missing = %v, %v, want undefined, nil", v.ToString(), err)
	}
}

func TestGetPropertyAccessorReceiver(t *testing.T) {
	vmInstance := NewVM()
	proto := NewObject(vmInstance.ObjectPrototype)
	var gotThis Value
	getter := NewNativeFunction(0, false, "get x", func(args []Value) (Value, error) {
		gotThis = vmInstance.GetThis()
		return IntegerValue(7), nil
	})
	proto.AsPlainObject().DefineAccessorProperty("x", getter, true, Undefined, false, nil, nil)
	child := NewObject(proto)

	v, err := vmInstance.GetProperty(child, "x")
	if err != nil || v.AsInteger() != 7 {
		t.Fatalf("x = %v, %v, want 7, nil", v.ToString(), err)
	}
	if !gotThis.Is(child) {
		t.Error("inherited getter did not run with the original receiver as this")
	}
}

func TestSetPropertyReadOnly(t *testing.T) {
	vmInstance := NewVM()
	obj := NewObject(vmInstance.ObjectPrototype)
	w := false
	obj.AsPlainObject().DefineOwnProperty("x", IntegerValue(1), &w, nil, nil)

	err := vmInstance.SetProperty(obj, "x", IntegerValue(2))
	if name := errorName(t, err); name != "TypeError" {
		t.Errorf("error name = %q, want TypeError", name)
	}
	if v, _ := obj.AsPlainObject().GetOwn("x"); v.AsInteger() != 1 {
		t.Errorf("x = %v, want 1", v.ToString())
	}
}

func TestSetPropertyInheritedReadOnly(t *testing.T) {
	vmInstance := NewVM()
	proto := NewObject(vmInstance.ObjectPrototype)
	w := false
	proto.AsPlainObject().DefineOwnProperty("x", IntegerValue(1), &w, nil, nil)
	child := NewObject(proto)

	err := vmInstance.SetProperty(child, "x", IntegerValue(2))
	if name := errorName(t, err); name != "TypeError" {
		t.Errorf("error name = %q, want TypeError", name)
	}
	if child.AsPlainObject().HasOwn("x") {
		t.Error("vetoed write still created an own property")
	}
}

func TestSetPropertyInheritedSetter(t *testing.T) {
	vmInstance := NewVM()
	proto := NewObject(vmInstance.ObjectPrototype)
	var gotThis, gotValue Value
	setter := NewNativeFunction(1, false, "set x", func(args []Value) (Value, error) {
		gotThis = vmInstance.GetThis()
		gotValue = args[0]
		return Undefined, nil
	})
	proto.AsPlainObject().DefineAccessorProperty("x", Undefined, false, setter, true, nil, nil)
	child := NewObject(proto)

	if err := vmInstance.SetProperty(child, "x", IntegerValue(3)); err != nil {
		t.Fatalf("SetProperty: %v", err)
	}
	if !gotThis.Is(child) {
		t.Error("inherited setter did not run with the original receiver as this")
	}
	if gotValue.AsInteger() != 3 {
		t.Errorf("setter value = %v, want 3", gotValue.ToString())
	}
	if child.AsPlainObject().HasOwn("x") {
		t.Error("setter write also created an own property")
	}
}

func TestSetPropertyGetterOnly(t *testing.T) {
	vmInstance := NewVM()
	obj := NewObject(vmInstance.ObjectPrototype)
	getter := NewNativeFunction(0, false, "get x", func(args []Value) (Value, error) {
		return IntegerValue(1), nil
	})
	obj.AsPlainObject().DefineAccessorProperty("x", getter, true, Undefined, false, nil, nil)

	err := vmInstance.SetProperty(obj, "x", IntegerValue(2))
	if name := errorName(t, err); name != "TypeError" {
		t.Errorf("error name = %q, want TypeError", name)
	}
}

func TestSetPropertyNonExtensible(t *testing.T) {
	vmInstance := NewVM()
	obj := NewObject(vmInstance.ObjectPrototype)
	po := obj.AsPlainObject()
	po.SetOwn("existing", IntegerValue(1))
	po.PreventExtensions()

	err := vmInstance.SetProperty(obj, "fresh", IntegerValue(2))
	if name := errorName(t, err); name != "TypeError" {
		t.Errorf("error name = %q, want TypeError", name)
	}

	// Existing writable properties still accept writes.
	if err := vmInstance.SetProperty(obj, "existing", IntegerValue(3)); err != nil {
		t.Fatalf("SetProperty(existing): %v", err)
	}
	if v, _ := po.GetOwn("existing"); v.AsInteger() != 3 {
		t.Errorf("existing = %v, want 3", v.ToString())
	}
}

func TestArrayProperties(t *testing.T) {
	vmInstance := NewVM()
	av := NewArray()
	arr := av.AsArray()
	arr.Append(NewString("a"))
	arr.Append(NewString("b"))
	arr.SetOwn("index", IntegerValue(4))

	v, err := vmInstance.GetProperty(av, "1")
	if err != nil || v.ToString() != "b" {
		t.Errorf("[1] = %v, %v, want b, nil", v.ToString(), err)
	}
	v, err = vmInstance.GetProperty(av, "length")
	if err != nil || v.AsInteger() != 2 {
		t.Errorf("length = %v, %v, want 2, nil", v.ToString(), err)
	}
	v, err = vmInstance.GetProperty(av, "index")
	if err != nil || v.AsInteger() != 4 {
		t.Errorf("index = %v, %v, want 4, nil", v.ToString(), err)
	}
	v, err = vmInstance.GetProperty(av, "9")
	if err != nil || v.Type() != TypeUndefined {
		t.Errorf("[9] = %v, %v, want undefined, nil", v.ToString(), err)
	}

	if err := vmInstance.SetProperty(av, "3", NewString("d")); err != nil {
		t.Fatalf("SetProperty(3): %v", err)
	}
	if arr.Length() != 4 {
		t.Errorf("length after sparse append = %d, want 4", arr.Length())
	}
	if arr.Get(2).Type() != TypeUndefined {
		t.Errorf("[2] = %v, want undefined", arr.Get(2).ToString())
	}
}

func TestStringValueLength(t *testing.T) {
	vmInstance := NewVM()
	v, err := vmInstance.GetProperty(NewString("\U0001F600"), "length")
	if err != nil || v.AsInteger() != 2 {
		t.Errorf("length = %v, %v, want 2, nil", v.ToString(), err)
	}
}

func TestToLength(t *testing.T) {
	vmInstance := NewVM()

	tests := []struct {
		name string
		v    Value
		want uint64
	}{
		{"integer", IntegerValue(5), 5},
		{"negative", IntegerValue(-3), 0},
		{"nan", NumberValue(nan()), 0},
		{"fraction", NumberValue(2.9), 2},
		{"huge", NumberValue(1e300), uint64(MaxSafeInteger)},
		{"undefined", Undefined, 0},
		{"numeric string", NewString("12"), 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := vmInstance.ToLength(tt.v)
			if err != nil || got != tt.want {
				t.Errorf("ToLength = %d, %v, want %d, nil", got, err, tt.want)
			}
		})
	}

	t.Run("symbol", func(t *testing.T) {
		_, err := vmInstance.ToLength(NewSymbol("s"))
		if name := errorName(t, err); name != "TypeError" {
			t.Errorf("error name = %q, want TypeError", name)
		}
	})

	t.Run("object valueOf", func(t *testing.T) {
		obj := NewObject(vmInstance.ObjectPrototype)
		obj.AsPlainObject().SetOwn("valueOf", NewNativeFunction(0, false, "valueOf", func(args []Value) (Value, error) {
			return IntegerValue(8), nil
		}))
		got, err := vmInstance.ToLength(obj)
		if err != nil || got != 8 {
			t.Errorf("ToLength = %d, %v, want 8, nil", got, err)
		}
	})
}

func nan() float64 {
	var zero float64
	return zero / zero
}
