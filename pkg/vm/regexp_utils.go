package vm

import "math"

// This file implements the dispatch and fast-path logic for executing a
// regexp-like value against a string: cursor (lastIndex) access, the
// RegExpExec protocol, duck-typed regexp recognition, the unmodified-instance
// predicate, and code-point-aware index advancement.
//
// Every predicate here is recomputed from current object state on each call.
// Any operation below may call into user code (getters, setters, exec
// overrides, valueOf) which can synchronously reenter this file or mutate the
// very object under inspection, so no result may be cached across such a
// call-out.

// GenericCaptureGetter extracts capture group `capture` from a match as a
// substring of the last subject. Returns ok=false when the group index is out
// of range or the group did not participate in the match.
func GenericCaptureGetter(matchInfo *MatchInfo, capture int) (Value, bool) {
	index := capture * 2
	if index >= matchInfo.NumberOfCaptureRegisters() {
		return NewString(""), false
	}

	matchStart := matchInfo.Capture(index)
	matchEnd := matchInfo.Capture(index + 1)
	if matchStart == -1 || matchEnd == -1 {
		return NewString(""), false
	}

	return matchInfo.LastSubject.AsString().Substring(matchStart, matchEnd), true
}

// hasInitialRegExpShape reports whether recv still has the intrinsic
// constructor's instance shape: no own properties added, removed or
// redefined since construction.
func hasInitialRegExpShape(vm *VM, recv *RegExpObject) bool {
	return recv.shape == vm.regexpShape &&
		recv.shape.version == vm.regexpShapeVersion &&
		recv.stamp == 0
}

// SetLastIndex writes the match cursor of recv. Instances with the initial
// shape take the dedicated-slot fast path; everything else goes through the
// generic property protocol with strict-mode semantics, so the write may run
// user setters and may fail.
func SetLastIndex(vm *VM, recv Value, value uint64) error {
	return SetLastIndexValue(vm, recv, numberFromUint64(value))
}

// SetLastIndexValue is SetLastIndex for an arbitrary cursor value, used by
// callers that must restore a previously read lastIndex verbatim.
func SetLastIndexValue(vm *VM, recv Value, value Value) error {
	if r := recv.AsRegExpObject(); r != nil && hasInitialRegExpShape(vm, r) {
		r.SetLastIndexSlot(value)
		return nil
	}
	return vm.SetProperty(recv, "lastIndex", value)
}

// GetLastIndex reads the match cursor of recv, via the dedicated slot when
// the instance shape is pristine and the generic protocol otherwise.
func GetLastIndex(vm *VM, recv Value) (Value, error) {
	if r := recv.AsRegExpObject(); r != nil && hasInitialRegExpShape(vm, r) {
		return r.LastIndexSlot(), nil
	}
	return vm.GetProperty(recv, "lastIndex")
}

func numberFromUint64(value uint64) Value {
	if value <= math.MaxInt32 {
		return IntegerValue(int32(value))
	}
	return NumberValue(float64(value))
}

// RegExpExec implements the ECMAScript RegExpExec(R, S) abstract operation. The optional
// exec argument lets a caller that already fetched the exec property pass it
// in; otherwise it is looked up here. A callable exec wins over the built-in
// matcher and its result must be an object or null. The built-in fallback
// requires a genuine regexp instance.
func RegExpExec(vm *VM, regexp Value, subject Value, exec Value) (Value, error) {
	if exec.Type() == TypeUndefined {
		// Unmodified instances cannot observe the exec lookup; dispatch to
		// the built-in matcher directly.
		if IsUnmodifiedRegExp(vm, regexp) {
			return vm.RegExpBuiltinExec(regexp, subject)
		}
		var err error
		exec, err = vm.GetProperty(regexp, "exec")
		if err != nil {
			return Undefined, err
		}
	}

	if exec.IsCallable() {
		result, err := vm.Call(exec, regexp, []Value{subject})
		if err != nil {
			return Undefined, err
		}
		if !result.IsObject() && result.Type() != TypeNull {
			return Undefined, vm.NewTypeError("RegExp exec method returned something other than an Object or null")
		}
		return result, nil
	}

	if !regexp.IsRegExp() {
		return Undefined, vm.NewTypeError("Method RegExp.prototype.exec called on incompatible receiver " + regexp.ToString())
	}

	return vm.RegExpBuiltinExec(regexp, subject)
}

// IsRegExp implements the ECMAScript IsRegExp(argument) duck-type check: the
// well-known match symbol wins when present (its lookup may run a user getter
// and throw), otherwise a genuine-instance tag check decides. Deliberately
// looser than IsUnmodifiedRegExp.
func IsRegExp(vm *VM, object Value) (bool, error) {
	if !object.IsObject() {
		return false, nil
	}

	match, err := vm.GetPropertyByKey(object, NewSymbolKey(vm.SymbolMatch))
	if err != nil {
		return false, err
	}
	if match.Type() != TypeUndefined {
		return match.ToBoolean(), nil
	}
	return object.IsRegExp(), nil
}

// IsUnmodifiedRegExp reports whether obj is provably in the state the
// intrinsic constructor left it in, making the generic property protocol
// unobservable for lastIndex and exec. Checked structurally on every call:
// the receiver's shape, the prototype's shape and stamp, and finally that the
// cursor already holds a small non-negative integer. The integer check exists
// so callers can skip ToLength(lastIndex), which could run user code, on the
// fast path. Any failure forces the generic, user-observable path.
func IsUnmodifiedRegExp(vm *VM, obj Value) bool {
	r := obj.AsRegExpObject()
	if r == nil {
		return false
	}

	// Check the receiver's shape.
	if !hasInitialRegExpShape(vm, r) {
		return false
	}

	// Check the receiver's prototype's shape.
	proto := r.Prototype()
	if !proto.IsObject() {
		return false
	}
	protoObj := proto.AsPlainObject()
	if protoObj != vm.regexpProtoObj ||
		protoObj.shape != vm.regexpProtoShape ||
		protoObj.shape.version != vm.regexpProtoVersion ||
		protoObj.stamp != vm.regexpProtoStamp {
		return false
	}

	// The integer check is required to omit ToLength(lastIndex) calls with
	// possible user-code execution on the fast path.
	lastIndex := r.LastIndexSlot()
	return lastIndex.IsIntegerNumber() && lastIndex.AsInteger() >= 0
}

// AdvanceStringIndex advances a code-unit index by one code point: one unit
// normally, two when unicode mode is on and the index sits on a surrogate
// pair. Pure; the index must be within the safe-integer range.
func AdvanceStringIndex(s *StringObject, index uint64, unicode bool) uint64 {
	length := uint64(s.Length())
	if unicode && index < length {
		first := s.CharCodeAt(int(index))
		if first >= 0xD800 && first <= 0xDBFF && index+1 < length {
			second := s.CharCodeAt(int(index + 1))
			if second >= 0xDC00 && second <= 0xDFFF {
				return index + 2
			}
		}
	}

	return index + 1
}

// SetAdvancedStringIndex re-homes the cursor one code point past its current
// position, as global rescans do between exec attempts. The generic lastIndex
// read and the length coercion may both run user code and throw; the write
// follows SetLastIndex's contract. Returns the new index.
func SetAdvancedStringIndex(vm *VM, regexp Value, subject *StringObject, unicode bool) (uint64, error) {
	lastIndexObj, err := vm.GetProperty(regexp, "lastIndex")
	if err != nil {
		return 0, err
	}

	lastIndex, err := vm.ToLength(lastIndexObj)
	if err != nil {
		return 0, err
	}

	newLastIndex := AdvanceStringIndex(subject, lastIndex, unicode)
	if err := SetLastIndex(vm, regexp, newLastIndex); err != nil {
		return 0, err
	}
	return newLastIndex, nil
}
