package vm

import "testing"

func TestShapeSharing(t *testing.T) {
	a := NewObject(Null).AsPlainObject()
	b := NewObject(Null).AsPlainObject()

	a.SetOwn("x", IntegerValue(1))
	b.SetOwn("x", IntegerValue(2))
	if a.Shape() != b.Shape() {
		t.Error("objects with the same property history must share a shape")
	}

	a.SetOwn("y", IntegerValue(3))
	if a.Shape() == b.Shape() {
		t.Error("diverging property histories must not share a shape")
	}

	v, ok := a.GetOwn("x")
	if !ok || v.AsInteger() != 1 {
		t.Errorf("a.x = %v, %v, want 1, true", v.ToString(), ok)
	}
	v, ok = b.GetOwn("x")
	if !ok || v.AsInteger() != 2 {
		t.Errorf("b.x = %v, %v, want 2, true", v.ToString(), ok)
	}
}

func TestShapeTransitionAttributes(t *testing.T) {
	a := NewObject(Null).AsPlainObject()
	b := NewObject(Null).AsPlainObject()

	a.SetOwn("m", True)
	b.SetOwnNonEnumerable("m", True)
	if a.Shape() == b.Shape() {
		t.Error("same key with different attributes must not share a shape")
	}
}

func TestMutationStamp(t *testing.T) {
	o := NewObject(Null).AsPlainObject()

	o.SetOwn("x", IntegerValue(1))
	if o.Stamp() != 0 {
		t.Errorf("stamp after add = %d, want 0", o.Stamp())
	}

	o.SetOwn("x", IntegerValue(2))
	if o.Stamp() != 1 {
		t.Errorf("stamp after overwrite = %d, want 1", o.Stamp())
	}

	o.SetPrototype(NewObject(Null))
	if o.Stamp() != 2 {
		t.Errorf("stamp after prototype change = %d, want 2", o.Stamp())
	}

	if !o.DeleteOwn("x") {
		t.Fatal("DeleteOwn failed for configurable property")
	}
	if o.Stamp() != 3 {
		t.Errorf("stamp after delete = %d, want 3", o.Stamp())
	}
	if _, ok := o.GetOwn("x"); ok {
		t.Error("deleted property still present")
	}
}

func TestDeleteOwn(t *testing.T) {
	o := NewObject(Null).AsPlainObject()
	o.SetOwn("a", IntegerValue(1))
	o.SetOwn("b", IntegerValue(2))
	o.SetOwn("c", IntegerValue(3))

	if !o.DeleteOwn("b") {
		t.Fatal("DeleteOwn(b) failed")
	}
	// Remaining slots must stay addressable after compaction.
	if v, _ := o.GetOwn("a"); v.AsInteger() != 1 {
		t.Errorf("a = %v, want 1", v.ToString())
	}
	if v, _ := o.GetOwn("c"); v.AsInteger() != 3 {
		t.Errorf("c = %v, want 3", v.ToString())
	}

	if !o.DeleteOwn("missing") {
		t.Error("deleting a missing property must report true")
	}

	c := false
	o.DefineOwnProperty("pinned", True, nil, nil, &c)
	if o.DeleteOwn("pinned") {
		t.Error("deleting a non-configurable property must report false")
	}
}

func TestDefineOwnPropertyMigration(t *testing.T) {
	a := NewObject(Null).AsPlainObject()
	b := NewObject(Null).AsPlainObject()
	a.SetOwn("x", IntegerValue(1))
	b.SetOwn("x", IntegerValue(1))

	w := false
	a.DefineOwnProperty("x", IntegerValue(5), &w, nil, nil)

	if a.Shape() == b.Shape() {
		t.Error("redefine must migrate the object off the shared shape")
	}

	_, writable, _, _, ok := a.GetOwnDescriptorByKey(NewStringKey("x"))
	if !ok || writable {
		t.Errorf("a.x writable = %v, exists = %v, want false, true", writable, ok)
	}

	// The sibling keeps the old attributes.
	b.SetOwn("x", IntegerValue(9))
	if v, _ := b.GetOwn("x"); v.AsInteger() != 9 {
		t.Errorf("b.x = %v, want 9", v.ToString())
	}

	// The redefined property rejects plain writes.
	a.SetOwn("x", IntegerValue(9))
	if v, _ := a.GetOwn("x"); v.AsInteger() != 5 {
		t.Errorf("a.x = %v, want 5", v.ToString())
	}
}

func TestAccessorProperties(t *testing.T) {
	o := NewObject(Null).AsPlainObject()
	getter := NewNativeFunction(0, false, "get x", func(args []Value) (Value, error) {
		return IntegerValue(42), nil
	})
	o.DefineAccessorProperty("x", getter, true, Undefined, false, nil, nil)

	g, s, ok := o.GetOwnAccessorByKey(NewStringKey("x"))
	if !ok {
		t.Fatal("accessor not found")
	}
	if !g.Is(getter) {
		t.Error("stored getter differs")
	}
	if s.Type() != TypeUndefined {
		t.Error("setter should be undefined")
	}
}

func TestOwnKeysOrder(t *testing.T) {
	o := NewObject(Null).AsPlainObject()
	o.SetOwn("b", True)
	o.SetOwn("a", True)
	o.SetOwn("c", True)

	keys := o.OwnKeys()
	want := []string{"b", "a", "c"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
}

func TestSymbolKeys(t *testing.T) {
	o := NewObject(Null).AsPlainObject()
	sym := NewSymbol("test")
	other := NewSymbol("test")

	o.SetOwnByKey(NewSymbolKey(sym), IntegerValue(1))

	if v, ok := o.GetOwnByKey(NewSymbolKey(sym)); !ok || v.AsInteger() != 1 {
		t.Errorf("symbol property = %v, %v, want 1, true", v.ToString(), ok)
	}
	// Symbols with the same description are still distinct keys.
	if _, ok := o.GetOwnByKey(NewSymbolKey(other)); ok {
		t.Error("distinct symbol resolved to the same property")
	}
	// Symbol-keyed properties stay out of the string key listing.
	if len(o.OwnKeys()) != 0 {
		t.Errorf("OwnKeys = %v, want empty", o.OwnKeys())
	}
}
