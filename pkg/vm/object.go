package vm

import (
	"fmt"
	"sync"
	"unsafe"
)

type KeyKind uint8

const (
	KeyKindString KeyKind = iota
	KeyKindSymbol
)

// PropertyKey represents a property key which can be a string or a symbol
type PropertyKey struct {
	kind      KeyKind
	name      string // for string keys
	symbolVal Value  // for symbol keys (TypeSymbol)
}

func keyFromString(name string) PropertyKey {
	return PropertyKey{kind: KeyKindString, name: name}
}

func keyFromSymbol(sym Value) PropertyKey {
	return PropertyKey{kind: KeyKindSymbol, symbolVal: sym}
}

// NewStringKey constructs an exported PropertyKey for string-named properties.
func NewStringKey(name string) PropertyKey { return keyFromString(name) }

// NewSymbolKey constructs an exported PropertyKey for symbol-named properties.
func NewSymbolKey(sym Value) PropertyKey { return keyFromSymbol(sym) }

func (k PropertyKey) isString() bool { return k.kind == KeyKindString }
func (k PropertyKey) isSymbol() bool { return k.kind == KeyKindSymbol }

func (k PropertyKey) debugName() string {
	switch k.kind {
	case KeyKindString:
		return k.name
	case KeyKindSymbol:
		return fmt.Sprintf("Symbol(%s)", k.symbolVal.AsSymbol())
	default:
		return "<unknown-key>"
	}
}

func (k PropertyKey) hash() string {
	switch k.kind {
	case KeyKindString:
		return "s:" + k.name
	case KeyKindSymbol:
		return fmt.Sprintf("y:%p", k.symbolVal.obj)
	default:
		return "?"
	}
}

type Field struct {
	offset int
	// For string keys, name holds the property name; for symbols, debug only
	name         string
	keyKind      KeyKind
	symbolVal    Value // valid when keyKind == KeyKindSymbol
	writable     bool
	enumerable   bool
	configurable bool
	isAccessor   bool
}

// Shape is the hidden class of an object: the layout and attributes of its
// own properties. Objects that went through the same sequence of property
// additions share a Shape via the transition table, so pointer equality on
// shapes is a structural identity check. Attribute changes and deletions
// migrate the object to a private shape with a higher version; the version
// lets a recorded (shape, version) pair stand in for deep layout equality.
type Shape struct {
	parent      *Shape
	fields      []Field
	transitions map[string]*Shape // keyed by PropertyKey.hash()
	mu          sync.RWMutex      // Protects transitions map
	version     uint32            // Bumped on any layout/flags change
}

func (s *Shape) field(key PropertyKey) (Field, bool) {
	for _, f := range s.fields {
		if (key.isString() && f.keyKind == KeyKindString && f.name == key.name) ||
			(key.isSymbol() && f.keyKind == KeyKindSymbol && f.symbolVal.obj == key.symbolVal.obj) {
			return f, true
		}
	}
	return Field{}, false
}

// RootShape is the empty shape all fresh objects start from.
var RootShape = &Shape{transitions: make(map[string]*Shape)}

type Object struct {
}

// PlainObject is the ordinary object: a shape, a prototype link and a flat
// slice of property slots. The stamp counts in-place value overwrites and
// other mutations that leave the shape pointer unchanged; together with the
// shape it forms the structural identity the fast-path classifier compares.
type PlainObject struct {
	Object
	shape      *Shape
	prototype  Value
	properties []Value
	// Accessor storage keyed by PropertyKey.hash()
	getters map[string]Value
	setters map[string]Value
	// Extensible flag - when false, no new properties can be added
	extensible bool
	// Bumped whenever an existing own property is overwritten, redefined or
	// deleted, or the prototype link changes. Adding a brand-new property is
	// visible through the shape transition instead.
	stamp uint32
}

// NewObject creates a plain object with the given prototype (or null).
func NewObject(proto Value) Value {
	prototype := Null
	if proto.IsObject() {
		prototype = proto
	}
	plainObj := &PlainObject{prototype: prototype, shape: RootShape, extensible: true}
	return Value{typ: TypeObject, obj: unsafe.Pointer(plainObj)}
}

// Shape returns the object's current shape.
func (o *PlainObject) Shape() *Shape {
	return o.shape
}

// Stamp returns the object's mutation stamp.
func (o *PlainObject) Stamp() uint32 {
	return o.stamp
}

// Prototype returns the object's [[Prototype]] value (an object or Null).
func (o *PlainObject) Prototype() Value {
	return o.prototype
}

// SetPrototype replaces the [[Prototype]] link.
func (o *PlainObject) SetPrototype(proto Value) {
	if proto.IsObject() {
		o.prototype = proto
	} else {
		o.prototype = Null
	}
	o.stamp++
}

// GetOwn looks up a direct (own) property by name. Returns (value, true) if present.
func (o *PlainObject) GetOwn(name string) (Value, bool) {
	return o.GetOwnByKey(keyFromString(name))
}

// GetOwnByKey looks up a direct (own) property by key. Returns (value, true) if present.
func (o *PlainObject) GetOwnByKey(key PropertyKey) (Value, bool) {
	if f, ok := o.shape.field(key); ok {
		if f.offset < len(o.properties) {
			return o.properties[f.offset], true
		}
		return Undefined, true
	}
	return Undefined, false
}

// HasOwn reports whether the object has an own property with the given name.
func (o *PlainObject) HasOwn(name string) bool {
	_, ok := o.shape.field(keyFromString(name))
	return ok
}

// GetOwnDescriptorByKey returns the value and attribute flags for an own property.
// Returns (value, writable, enumerable, configurable, exists).
func (o *PlainObject) GetOwnDescriptorByKey(key PropertyKey) (Value, bool, bool, bool, bool) {
	if f, ok := o.shape.field(key); ok {
		if f.isAccessor {
			return Undefined, false, f.enumerable, f.configurable, true
		}
		var v Value = Undefined
		if f.offset < len(o.properties) {
			v = o.properties[f.offset]
		}
		return v, f.writable, f.enumerable, f.configurable, true
	}
	return Undefined, false, false, false, false
}

// GetOwnAccessorByKey returns the accessor pair for an own property if it is
// an accessor. Returns (get, set, exists).
func (o *PlainObject) GetOwnAccessorByKey(key PropertyKey) (Value, Value, bool) {
	f, ok := o.shape.field(key)
	if !ok || !f.isAccessor {
		return Undefined, Undefined, false
	}
	var g, s Value = Undefined, Undefined
	if o.getters != nil {
		if v, ok := o.getters[key.hash()]; ok {
			g = v
		}
	}
	if o.setters != nil {
		if v, ok := o.setters[key.hash()]; ok {
			s = v
		}
	}
	return g, s, true
}

// SetOwn sets or defines an own property. Creates a new shape on first
// definition. If the property exists and is non-writable, this is a no-op;
// strict failure reporting is the caller's job (see VM.SetProperty).
func (o *PlainObject) SetOwn(name string, v Value) {
	o.SetOwnByKey(keyFromString(name), v)
}

// SetOwnByKey is SetOwn for arbitrary key kinds.
func (o *PlainObject) SetOwnByKey(key PropertyKey, v Value) {
	if f, ok := o.shape.field(key); ok {
		// existing property: honor writable flag
		if f.writable && !f.isAccessor {
			o.properties[f.offset] = v
			o.stamp++
		}
		return
	}
	o.addField(key, v, true, true, true)
}

// SetOwnNonEnumerable sets or defines an own property as non-enumerable
// (for built-in methods).
func (o *PlainObject) SetOwnNonEnumerable(name string, v Value) {
	key := keyFromString(name)
	if f, ok := o.shape.field(key); ok {
		if f.writable && !f.isAccessor {
			o.properties[f.offset] = v
			o.stamp++
		}
		return
	}
	o.addField(key, v, true, false, true)
}

// addField appends a new data field, migrating the object to the transition
// shape (shared with other objects that took the same path).
func (o *PlainObject) addField(key PropertyKey, v Value, writable, enumerable, configurable bool) {
	cur := o.shape
	hashKey := fmt.Sprintf("%s|%t%t%t", key.hash(), writable, enumerable, configurable)
	cur.mu.RLock()
	next, ok := cur.transitions[hashKey]
	cur.mu.RUnlock()
	if !ok {
		off := len(cur.fields)
		fld := Field{offset: off, name: key.debugName(), keyKind: key.kind, writable: writable, enumerable: enumerable, configurable: configurable}
		if key.isSymbol() {
			fld.symbolVal = key.symbolVal
		}
		newFields := make([]Field, len(cur.fields)+1)
		copy(newFields, cur.fields)
		newFields[len(cur.fields)] = fld
		next = &Shape{parent: cur, fields: newFields, transitions: make(map[string]*Shape), version: cur.version + 1}
		cur.mu.Lock()
		if existing, exists := cur.transitions[hashKey]; exists {
			next = existing
		} else {
			cur.transitions[hashKey] = next
		}
		cur.mu.Unlock()
	}
	o.shape = next
	o.properties = append(o.properties, v)
}

// migrateField moves the object to a private shape with field i replaced.
// Shapes are shared between objects, so attribute changes must never mutate
// the current shape in place.
func (o *PlainObject) migrateField(i int, f Field) {
	newFields := make([]Field, len(o.shape.fields))
	copy(newFields, o.shape.fields)
	newFields[i] = f
	o.shape = &Shape{parent: o.shape.parent, fields: newFields, transitions: make(map[string]*Shape), version: o.shape.version + 1}
}

// PreventExtensions marks the object as non-extensible: new own properties
// can no longer be added.
func (o *PlainObject) PreventExtensions() {
	o.extensible = false
	o.stamp++
}

// DefineOwnProperty defines or updates an own property with explicit
// attributes. For existing properties, nil attributes keep previous values.
func (o *PlainObject) DefineOwnProperty(name string, value Value, writable *bool, enumerable *bool, configurable *bool) {
	o.DefineOwnPropertyByKey(keyFromString(name), value, writable, enumerable, configurable)
}

// DefineOwnPropertyByKey defines or updates an own property for arbitrary key kinds.
func (o *PlainObject) DefineOwnPropertyByKey(key PropertyKey, value Value, writable *bool, enumerable *bool, configurable *bool) {
	for i, f := range o.shape.fields {
		match := (key.isString() && f.keyKind == KeyKindString && f.name == key.name) ||
			(key.isSymbol() && f.keyKind == KeyKindSymbol && f.symbolVal.obj == key.symbolVal.obj)
		if !match {
			continue
		}
		newF := f
		if f.isAccessor {
			// Convert accessor to data property: only if configurable
			if !f.configurable {
				return
			}
			newF.isAccessor = false
			newF.writable = false
			keyHash := key.hash()
			if o.getters != nil {
				delete(o.getters, keyHash)
			}
			if o.setters != nil {
				delete(o.setters, keyHash)
			}
		}
		if !f.configurable {
			if configurable != nil && *configurable != f.configurable {
				return
			}
			if enumerable != nil && *enumerable != f.enumerable {
				return
			}
			if !f.writable && writable != nil && *writable {
				return
			}
			if !f.writable && !f.isAccessor {
				return
			}
		}
		o.properties[f.offset] = value
		if writable != nil {
			newF.writable = *writable
		}
		if enumerable != nil {
			newF.enumerable = *enumerable
		}
		if configurable != nil {
			newF.configurable = *configurable
		}
		o.migrateField(i, newF)
		o.stamp++
		return
	}
	// New property via descriptor: defaults false unless specified
	w, e, c := false, false, false
	if writable != nil {
		w = *writable
	}
	if enumerable != nil {
		e = *enumerable
	}
	if configurable != nil {
		c = *configurable
	}
	o.addField(key, value, w, e, c)
}

// DefineAccessorProperty defines or updates an accessor own property.
func (o *PlainObject) DefineAccessorProperty(name string, getter Value, hasGetter bool, setter Value, hasSetter bool, enumerable *bool, configurable *bool) {
	o.DefineAccessorPropertyByKey(keyFromString(name), getter, hasGetter, setter, hasSetter, enumerable, configurable)
}

// DefineAccessorPropertyByKey defines or updates an accessor property for arbitrary key kinds.
func (o *PlainObject) DefineAccessorPropertyByKey(key PropertyKey, getter Value, hasGetter bool, setter Value, hasSetter bool, enumerable *bool, configurable *bool) {
	for i, f := range o.shape.fields {
		match := (key.isString() && f.keyKind == KeyKindString && f.name == key.name) ||
			(key.isSymbol() && f.keyKind == KeyKindSymbol && f.symbolVal.obj == key.symbolVal.obj)
		if !match {
			continue
		}
		if !f.configurable {
			return
		}
		newF := f
		newF.isAccessor = true
		if enumerable != nil {
			newF.enumerable = *enumerable
		}
		if configurable != nil {
			newF.configurable = *configurable
		}
		o.migrateField(i, newF)
		o.stamp++
		o.storeAccessors(key, getter, hasGetter, setter, hasSetter)
		return
	}
	// New field: accessors always migrate to a fresh shape (no transition
	// sharing, their identity differs per getter/setter pair)
	cur := o.shape
	off := len(cur.fields)
	fld := Field{offset: off, name: key.debugName(), keyKind: key.kind, isAccessor: true}
	if key.isSymbol() {
		fld.symbolVal = key.symbolVal
	}
	if enumerable != nil {
		fld.enumerable = *enumerable
	}
	if configurable != nil {
		fld.configurable = *configurable
	}
	newFields := make([]Field, len(cur.fields)+1)
	copy(newFields, cur.fields)
	newFields[len(cur.fields)] = fld
	o.shape = &Shape{parent: cur, fields: newFields, transitions: make(map[string]*Shape), version: cur.version + 1}
	o.properties = append(o.properties, Undefined)
	o.storeAccessors(key, getter, hasGetter, setter, hasSetter)
}

func (o *PlainObject) storeAccessors(key PropertyKey, getter Value, hasGetter bool, setter Value, hasSetter bool) {
	if o.getters == nil {
		o.getters = make(map[string]Value)
	}
	if o.setters == nil {
		o.setters = make(map[string]Value)
	}
	if hasGetter {
		o.getters[key.hash()] = getter
	}
	if hasSetter {
		o.setters[key.hash()] = setter
	}
}

// DeleteOwn removes an own property if present and configurable.
// Returns true if the property was deleted (or did not exist).
func (o *PlainObject) DeleteOwn(name string) bool {
	key := keyFromString(name)
	idx := -1
	var f Field
	for i := range o.shape.fields {
		if o.shape.fields[i].keyKind == KeyKindString && o.shape.fields[i].name == name {
			idx = i
			f = o.shape.fields[i]
			break
		}
	}
	if idx == -1 {
		// Non-existent own property: delete reports true per ECMAScript
		return true
	}
	if !f.configurable {
		return false
	}
	newFields := make([]Field, 0, len(o.shape.fields)-1)
	for i, fld := range o.shape.fields {
		if i == idx {
			continue
		}
		nf := fld
		if fld.offset > f.offset {
			nf.offset = fld.offset - 1
		}
		newFields = append(newFields, nf)
	}
	newProps := make([]Value, 0, len(o.properties)-1)
	for i := range o.properties {
		if i == f.offset {
			continue
		}
		newProps = append(newProps, o.properties[i])
	}
	// Fresh shape without transitions; deleted layouts are not shared
	o.shape = &Shape{parent: o.shape.parent, fields: newFields, transitions: make(map[string]*Shape), version: o.shape.version + 1}
	o.properties = newProps
	o.stamp++
	if f.isAccessor {
		delete(o.getters, key.hash())
		delete(o.setters, key.hash())
	}
	return true
}

// OwnKeys returns the string-named own property names in definition order.
func (o *PlainObject) OwnKeys() []string {
	keys := make([]string, 0, len(o.shape.fields))
	for _, f := range o.shape.fields {
		if f.keyKind == KeyKindString {
			keys = append(keys, f.name)
		}
	}
	return keys
}

// slot reads a property slot directly by offset, bypassing the property
// protocol. Reserved for fast paths that proved the layout beforehand.
func (o *PlainObject) slot(offset int) Value {
	return o.properties[offset]
}

// setSlot writes a property slot directly by offset. Does not touch the
// mutation stamp: fast-path cursor updates are not user-visible shape changes.
func (o *PlainObject) setSlot(offset int, v Value) {
	o.properties[offset] = v
}
