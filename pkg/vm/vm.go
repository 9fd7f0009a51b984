package vm

// VM holds the realm state the runtime operates in: intrinsic prototypes,
// well-known symbols, globals and the pristine-shape records the regexp fast
// path compares against.
type VM struct {
	ObjectPrototype Value
	ErrorPrototype  Value
	RegExpPrototype Value

	SymbolMatch    Value
	SymbolMatchAll Value
	SymbolReplace  Value
	SymbolSearch   Value
	SymbolSplit    Value

	globals map[string]Value

	// this bindings of active native calls, innermost last
	thisStack []Value

	// Pristine identity of the intrinsic regexp constructor's instances and
	// of RegExp.prototype, captured by SealRegExpIntrinsics. Recomputed
	// comparisons against these records are the fast-path classifier.
	regexpShape        *Shape
	regexpShapeVersion uint32
	regexpProtoObj     *PlainObject
	regexpProtoShape   *Shape
	regexpProtoVersion uint32
	regexpProtoStamp   uint32
}

// Offset of the lastIndex slot inside the pristine regexp shape.
const regexpLastIndexSlot = 0

// NewVM creates a realm with its intrinsic objects. RegExp.prototype starts
// empty; builtins populate it and must call SealRegExpIntrinsics afterwards.
func NewVM() *VM {
	vm := &VM{globals: make(map[string]Value)}
	vm.ObjectPrototype = NewObject(Null)
	vm.ErrorPrototype = NewObject(vm.ObjectPrototype)
	vm.RegExpPrototype = NewObject(vm.ObjectPrototype)

	vm.SymbolMatch = NewSymbol("Symbol.match")
	vm.SymbolMatchAll = NewSymbol("Symbol.matchAll")
	vm.SymbolReplace = NewSymbol("Symbol.replace")
	vm.SymbolSearch = NewSymbol("Symbol.search")
	vm.SymbolSplit = NewSymbol("Symbol.split")

	// The initial instance shape: exactly one own property, lastIndex,
	// writable but neither enumerable nor configurable. Every regexp the
	// intrinsic constructor makes starts with this shape.
	template := NewObject(vm.RegExpPrototype).AsPlainObject()
	template.addField(keyFromString("lastIndex"), IntegerValue(0), true, false, false)
	vm.regexpShape = template.shape

	vm.SealRegExpIntrinsics()
	return vm
}

// SealRegExpIntrinsics records the current structural identity of the regexp
// intrinsics as the pristine state. Builtins call this once after installing
// the prototype methods; anything that alters instances or the prototype
// afterwards diverges from the recorded identity and disables the fast path.
func (vm *VM) SealRegExpIntrinsics() {
	vm.regexpShapeVersion = vm.regexpShape.version
	proto := vm.RegExpPrototype.AsPlainObject()
	vm.regexpProtoObj = proto
	vm.regexpProtoShape = proto.shape
	vm.regexpProtoVersion = proto.shape.version
	vm.regexpProtoStamp = proto.stamp
}

// DefineGlobal registers a global binding.
func (vm *VM) DefineGlobal(name string, value Value) error {
	vm.globals[name] = value
	return nil
}

// GetGlobal returns a global binding.
func (vm *VM) GetGlobal(name string) (Value, bool) {
	v, ok := vm.globals[name]
	return v, ok
}
