package builtins

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"jsrt/pkg/vm"
)

// Safety limit for global scans driven by user-overridable exec results.
const maxMatchIterations = 1000000

func argOrUndefined(args []vm.Value, i int) vm.Value {
	if i < len(args) {
		return args[i]
	}
	return vm.Undefined
}

// toStringValue converts a value to a string value with JavaScript semantics:
// objects go through ToPrimitive (which may call user toString/valueOf and
// may throw), symbols refuse the conversion.
func toStringValue(vmInstance *vm.VM, v vm.Value) (vm.Value, error) {
	if v.Type() == vm.TypeString {
		return v, nil
	}
	if v.IsObject() {
		prim, err := vmInstance.ToPrimitive(v, "string")
		if err != nil {
			return vm.Undefined, err
		}
		if prim.Type() == vm.TypeString {
			return prim, nil
		}
		v = prim
	}
	if v.Type() == vm.TypeSymbol {
		return vm.Undefined, vmInstance.NewTypeError("Cannot convert a Symbol value to a string")
	}
	return vm.NewString(v.ToString()), nil
}

// expandReplacement processes $ patterns in a replacement string:
// $$ -> $, $& -> matched substring, $` -> portion before the match,
// $' -> portion after the match, $n / $nn -> numbered capture,
// $<name> -> named capture. All positions are UTF-16 code-unit offsets.
func expandReplacement(vmInstance *vm.VM, subject *vm.StringObject, matched *vm.StringObject, position int, captures []vm.Value, namedCaptures vm.Value, replacement *vm.StringObject) ([]uint16, error) {
	units := replacement.Units()
	subjectUnits := subject.Units()
	var out []uint16
	i := 0
	for i < len(units) {
		if units[i] != '$' || i+1 >= len(units) {
			out = append(out, units[i])
			i++
			continue
		}
		next := units[i+1]
		switch {
		case next == '$':
			out = append(out, '$')
			i += 2
		case next == '&':
			out = append(out, matched.Units()...)
			i += 2
		case next == '`':
			end := position
			if end > len(subjectUnits) {
				end = len(subjectUnits)
			}
			out = append(out, subjectUnits[:end]...)
			i += 2
		case next == '\'':
			endPos := position + matched.Length()
			if endPos < len(subjectUnits) {
				out = append(out, subjectUnits[endPos:]...)
			}
			i += 2
		case next == '<':
			if namedCaptures.Type() == vm.TypeUndefined {
				out = append(out, '$')
				i++
				continue
			}
			endIdx := i + 2
			for endIdx < len(units) && units[endIdx] != '>' {
				endIdx++
			}
			if endIdx >= len(units) {
				out = append(out, '$')
				i++
				continue
			}
			name := string(utf16.Decode(units[i+2 : endIdx]))
			val, err := vmInstance.GetProperty(namedCaptures, name)
			if err != nil {
				return nil, err
			}
			if val.Type() != vm.TypeUndefined {
				vs, err := toStringValue(vmInstance, val)
				if err != nil {
					return nil, err
				}
				out = append(out, vs.AsString().Units()...)
			}
			i = endIdx + 1
		case next >= '0' && next <= '9':
			num := int(next - '0')
			consumed := 2
			// Prefer two digits when they name an existing group
			if i+2 < len(units) && units[i+2] >= '0' && units[i+2] <= '9' {
				two := num*10 + int(units[i+2]-'0')
				if two >= 1 && two <= len(captures) {
					num = two
					consumed = 3
				}
			}
			if num >= 1 && num <= len(captures) {
				if capture := captures[num-1]; capture.Type() != vm.TypeUndefined {
					out = append(out, capture.AsString().Units()...)
				}
				i += consumed
				continue
			}
			// No such group: output literally
			out = append(out, '$')
			i++
		default:
			// Unknown $ sequence, output literally
			out = append(out, '$')
			i++
		}
	}
	return out, nil
}

type RegExpInitializer struct{}

func (r *RegExpInitializer) Name() string {
	return "RegExp"
}

func (r *RegExpInitializer) Priority() int {
	return PriorityRegExp // After error constructors
}

func (r *RegExpInitializer) InitRuntime(ctx *RuntimeContext) error {
	vmInstance := ctx.VM

	regexpProto := vmInstance.RegExpPrototype.AsPlainObject()

	e, c := false, true // accessor attributes: not enumerable, configurable

	// Flag and source accessors live on the prototype; reading them on the
	// prototype itself yields the ECMAScript defaults instead of throwing.
	defineGetter := func(name string, onRegExp func(r *vm.RegExpObject) vm.Value, onProto vm.Value) {
		getter := vm.NewNativeFunction(0, false, "get "+name, func(args []vm.Value) (vm.Value, error) {
			this := vmInstance.GetThis()
			if r := this.AsRegExpObject(); r != nil {
				return onRegExp(r), nil
			}
			if this.Is(vmInstance.RegExpPrototype) {
				return onProto, nil
			}
			return vm.Undefined, vmInstance.NewTypeError("RegExp.prototype." + name + " getter called on non-RegExp")
		})
		regexpProto.DefineAccessorProperty(name, getter, true, vm.Undefined, false, &e, &c)
	}

	defineGetter("source", func(r *vm.RegExpObject) vm.Value { return vm.NewString(r.GetSource()) }, vm.NewString("(?:)"))
	defineGetter("flags", func(r *vm.RegExpObject) vm.Value { return vm.NewString(r.GetFlags()) }, vm.NewString(""))
	defineGetter("global", func(r *vm.RegExpObject) vm.Value { return vm.BooleanValue(r.IsGlobal()) }, vm.Undefined)
	defineGetter("ignoreCase", func(r *vm.RegExpObject) vm.Value { return vm.BooleanValue(r.IsIgnoreCase()) }, vm.Undefined)
	defineGetter("multiline", func(r *vm.RegExpObject) vm.Value { return vm.BooleanValue(r.IsMultiline()) }, vm.Undefined)
	defineGetter("dotAll", func(r *vm.RegExpObject) vm.Value { return vm.BooleanValue(r.IsDotAll()) }, vm.Undefined)
	defineGetter("unicode", func(r *vm.RegExpObject) vm.Value { return vm.BooleanValue(r.IsUnicode()) }, vm.Undefined)
	defineGetter("sticky", func(r *vm.RegExpObject) vm.Value { return vm.BooleanValue(r.IsSticky()) }, vm.Undefined)

	regexpProto.SetOwnNonEnumerable("exec", vm.NewNativeFunction(1, false, "exec", func(args []vm.Value) (vm.Value, error) {
		this := vmInstance.GetThis()
		if !this.IsRegExp() {
			return vm.Undefined, vmInstance.NewTypeError("Method RegExp.prototype.exec called on incompatible receiver " + this.ToString())
		}
		sv, err := toStringValue(vmInstance, argOrUndefined(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		return vmInstance.RegExpBuiltinExec(this, sv)
	}))

	regexpProto.SetOwnNonEnumerable("test", vm.NewNativeFunction(1, false, "test", func(args []vm.Value) (vm.Value, error) {
		this := vmInstance.GetThis()
		if !this.IsObject() {
			return vm.Undefined, vmInstance.NewTypeError("Method RegExp.prototype.test called on incompatible receiver " + this.ToString())
		}
		sv, err := toStringValue(vmInstance, argOrUndefined(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		result, err := vm.RegExpExec(vmInstance, this, sv, vm.Undefined)
		if err != nil {
			return vm.Undefined, err
		}
		return vm.BooleanValue(result.Type() != vm.TypeNull), nil
	}))

	regexpProto.SetOwnNonEnumerable("toString", vm.NewNativeFunction(0, false, "toString", func(args []vm.Value) (vm.Value, error) {
		this := vmInstance.GetThis()
		if !this.IsObject() {
			return vm.Undefined, vmInstance.NewTypeError("Method RegExp.prototype.toString called on incompatible receiver " + this.ToString())
		}
		source, err := vmInstance.GetProperty(this, "source")
		if err != nil {
			return vm.Undefined, err
		}
		flags, err := vmInstance.GetProperty(this, "flags")
		if err != nil {
			return vm.Undefined, err
		}
		return vm.NewString("/" + source.ToString() + "/" + flags.ToString()), nil
	}))

	w := true // method attributes: writable, not enumerable, configurable

	// RegExp.prototype[@@match] ( string )
	matchFunc := vm.NewNativeFunction(1, false, "[Symbol.match]", func(args []vm.Value) (vm.Value, error) {
		rx := vmInstance.GetThis()
		if !rx.IsObject() {
			return vm.Undefined, vmInstance.NewTypeError("RegExp.prototype[Symbol.match] called on non-object")
		}
		sv, err := toStringValue(vmInstance, argOrUndefined(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		subject := sv.AsString()

		flagsVal, err := vmInstance.GetProperty(rx, "flags")
		if err != nil {
			return vm.Undefined, err
		}
		flags := flagsVal.ToString()

		// Non-global: a single exec decides
		if !strings.Contains(flags, "g") {
			return vm.RegExpExec(vmInstance, rx, sv, vm.Undefined)
		}

		fullUnicode := strings.Contains(flags, "u")
		if err := vm.SetLastIndex(vmInstance, rx, 0); err != nil {
			return vm.Undefined, err
		}

		resultVal := vm.NewArray()
		arr := resultVal.AsArray()
		n := 0
		for {
			result, err := vm.RegExpExec(vmInstance, rx, sv, vm.Undefined)
			if err != nil {
				return vm.Undefined, err
			}
			if result.Type() == vm.TypeNull {
				if n == 0 {
					return vm.Null, nil
				}
				return resultVal, nil
			}

			matchVal, err := vmInstance.GetProperty(result, "0")
			if err != nil {
				return vm.Undefined, err
			}
			matchStr, err := toStringValue(vmInstance, matchVal)
			if err != nil {
				return vm.Undefined, err
			}
			arr.Append(matchStr)

			// Empty match: step past it so the scan terminates
			if matchStr.AsString().Length() == 0 {
				if _, err := vm.SetAdvancedStringIndex(vmInstance, rx, subject, fullUnicode); err != nil {
					return vm.Undefined, err
				}
			}

			n++
			if n > maxMatchIterations {
				return vm.Undefined, vmInstance.NewRangeError("Maximum match iterations exceeded")
			}
		}
	})
	regexpProto.DefineOwnPropertyByKey(vm.NewSymbolKey(vmInstance.SymbolMatch), matchFunc, &w, &e, &c)

	// RegExp.prototype[@@search] ( string )
	searchFunc := vm.NewNativeFunction(1, false, "[Symbol.search]", func(args []vm.Value) (vm.Value, error) {
		rx := vmInstance.GetThis()
		if !rx.IsObject() {
			return vm.Undefined, vmInstance.NewTypeError("RegExp.prototype[Symbol.search] called on non-object")
		}
		sv, err := toStringValue(vmInstance, argOrUndefined(args, 0))
		if err != nil {
			return vm.Undefined, err
		}

		previousLastIndex, err := vm.GetLastIndex(vmInstance, rx)
		if err != nil {
			return vm.Undefined, err
		}
		if !previousLastIndex.Is(vm.IntegerValue(0)) {
			if err := vm.SetLastIndex(vmInstance, rx, 0); err != nil {
				return vm.Undefined, err
			}
		}

		result, err := vm.RegExpExec(vmInstance, rx, sv, vm.Undefined)
		if err != nil {
			return vm.Undefined, err
		}

		currentLastIndex, err := vm.GetLastIndex(vmInstance, rx)
		if err != nil {
			return vm.Undefined, err
		}
		if !currentLastIndex.Is(previousLastIndex) {
			if err := vm.SetLastIndexValue(vmInstance, rx, previousLastIndex); err != nil {
				return vm.Undefined, err
			}
		}

		if result.Type() == vm.TypeNull {
			return vm.IntegerValue(-1), nil
		}
		indexVal, err := vmInstance.GetProperty(result, "index")
		if err != nil {
			return vm.Undefined, err
		}
		return indexVal, nil
	})
	regexpProto.DefineOwnPropertyByKey(vm.NewSymbolKey(vmInstance.SymbolSearch), searchFunc, &w, &e, &c)

	// RegExp.prototype[@@replace] ( string, replaceValue )
	replaceFunc := vm.NewNativeFunction(2, false, "[Symbol.replace]", func(args []vm.Value) (vm.Value, error) {
		rx := vmInstance.GetThis()
		if !rx.IsObject() {
			return vm.Undefined, vmInstance.NewTypeError("RegExp.prototype[Symbol.replace] called on non-object")
		}
		sv, err := toStringValue(vmInstance, argOrUndefined(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		subject := sv.AsString()
		units := subject.Units()

		replaceValue := argOrUndefined(args, 1)
		isCallable := replaceValue.IsCallable()
		var replStr *vm.StringObject
		if !isCallable {
			rs, err := toStringValue(vmInstance, replaceValue)
			if err != nil {
				return vm.Undefined, err
			}
			replStr = rs.AsString()
		}

		flagsVal, err := vmInstance.GetProperty(rx, "flags")
		if err != nil {
			return vm.Undefined, err
		}
		flags := flagsVal.ToString()
		isGlobal := strings.Contains(flags, "g")
		fullUnicode := strings.Contains(flags, "u")

		if isGlobal {
			if err := vm.SetLastIndex(vmInstance, rx, 0); err != nil {
				return vm.Undefined, err
			}
		}

		var results []vm.Value
		n := 0
		for {
			result, err := vm.RegExpExec(vmInstance, rx, sv, vm.Undefined)
			if err != nil {
				return vm.Undefined, err
			}
			if result.Type() == vm.TypeNull {
				break
			}
			results = append(results, result)
			if !isGlobal {
				break
			}

			matchVal, err := vmInstance.GetProperty(result, "0")
			if err != nil {
				return vm.Undefined, err
			}
			matchStr, err := toStringValue(vmInstance, matchVal)
			if err != nil {
				return vm.Undefined, err
			}
			if matchStr.AsString().Length() == 0 {
				if _, err := vm.SetAdvancedStringIndex(vmInstance, rx, subject, fullUnicode); err != nil {
					return vm.Undefined, err
				}
			}

			n++
			if n > maxMatchIterations {
				return vm.Undefined, vmInstance.NewRangeError("Maximum match iterations exceeded")
			}
		}

		var acc []uint16
		nextSourcePosition := 0
		for _, result := range results {
			lenVal, err := vmInstance.GetProperty(result, "length")
			if err != nil {
				return vm.Undefined, err
			}
			nCaptures := int(lenVal.ToFloat()) - 1
			if nCaptures < 0 {
				nCaptures = 0
			}

			matchedVal, err := vmInstance.GetProperty(result, "0")
			if err != nil {
				return vm.Undefined, err
			}
			matchedStr, err := toStringValue(vmInstance, matchedVal)
			if err != nil {
				return vm.Undefined, err
			}
			matched := matchedStr.AsString()

			positionVal, err := vmInstance.GetProperty(result, "index")
			if err != nil {
				return vm.Undefined, err
			}
			position := int(positionVal.ToFloat())
			if position < 0 {
				position = 0
			}
			if position > len(units) {
				position = len(units)
			}

			captures := make([]vm.Value, 0, nCaptures)
			for i := 1; i <= nCaptures; i++ {
				capVal, err := vmInstance.GetProperty(result, strconv.Itoa(i))
				if err != nil {
					return vm.Undefined, err
				}
				if capVal.Type() == vm.TypeUndefined {
					captures = append(captures, vm.Undefined)
				} else {
					cs, err := toStringValue(vmInstance, capVal)
					if err != nil {
						return vm.Undefined, err
					}
					captures = append(captures, cs)
				}
			}

			namedCaptures, err := vmInstance.GetProperty(result, "groups")
			if err != nil {
				return vm.Undefined, err
			}

			var replacementUnits []uint16
			if isCallable {
				replacerArgs := make([]vm.Value, 0, len(captures)+3)
				replacerArgs = append(replacerArgs, matchedStr)
				replacerArgs = append(replacerArgs, captures...)
				replacerArgs = append(replacerArgs, vm.IntegerValue(int32(position)))
				replacerArgs = append(replacerArgs, sv)
				if namedCaptures.Type() != vm.TypeUndefined {
					replacerArgs = append(replacerArgs, namedCaptures)
				}
				replResult, err := vmInstance.Call(replaceValue, vm.Undefined, replacerArgs)
				if err != nil {
					return vm.Undefined, err
				}
				rs, err := toStringValue(vmInstance, replResult)
				if err != nil {
					return vm.Undefined, err
				}
				replacementUnits = rs.AsString().Units()
			} else {
				replacementUnits, err = expandReplacement(vmInstance, subject, matched, position, captures, namedCaptures, replStr)
				if err != nil {
					return vm.Undefined, err
				}
			}

			if position >= nextSourcePosition {
				acc = append(acc, units[nextSourcePosition:position]...)
				acc = append(acc, replacementUnits...)
				nextSourcePosition = position + matched.Length()
			}
		}

		if nextSourcePosition < len(units) {
			acc = append(acc, units[nextSourcePosition:]...)
		}
		return vm.NewStringFromUnits(acc), nil
	})
	regexpProto.DefineOwnPropertyByKey(vm.NewSymbolKey(vmInstance.SymbolReplace), replaceFunc, &w, &e, &c)

	// RegExp.prototype[@@split] ( string, limit )
	splitFunc := vm.NewNativeFunction(2, false, "[Symbol.split]", func(args []vm.Value) (vm.Value, error) {
		rx := vmInstance.GetThis()
		if !rx.IsObject() {
			return vm.Undefined, vmInstance.NewTypeError("RegExp.prototype[Symbol.split] called on non-object")
		}
		sv, err := toStringValue(vmInstance, argOrUndefined(args, 0))
		if err != nil {
			return vm.Undefined, err
		}
		subject := sv.AsString()
		size := subject.Length()

		flagsVal, err := vmInstance.GetProperty(rx, "flags")
		if err != nil {
			return vm.Undefined, err
		}
		unicodeMatching := strings.Contains(flagsVal.ToString(), "u")

		resultVal := vm.NewArray()
		arr := resultVal.AsArray()

		lim := ^uint32(0)
		if limitVal := argOrUndefined(args, 1); limitVal.Type() != vm.TypeUndefined {
			lim = uint32(limitVal.ToFloat())
		}
		if lim == 0 {
			return resultVal, nil
		}

		if size == 0 {
			result, err := vm.RegExpExec(vmInstance, rx, sv, vm.Undefined)
			if err != nil {
				return vm.Undefined, err
			}
			if result.Type() != vm.TypeNull {
				return resultVal, nil
			}
			arr.Append(vm.NewString(""))
			return resultVal, nil
		}

		p := 0 // position of last match end
		q := 0 // current search position
		for q < size {
			if err := vm.SetLastIndex(vmInstance, rx, 0); err != nil {
				return vm.Undefined, err
			}

			// Exec on the tail so non-sticky patterns still anchor at q
			result, err := vm.RegExpExec(vmInstance, rx, subject.Substring(q, size), vm.Undefined)
			if err != nil {
				return vm.Undefined, err
			}
			if result.Type() == vm.TypeNull {
				break
			}

			indexVal, err := vmInstance.GetProperty(result, "index")
			if err != nil {
				return vm.Undefined, err
			}
			if int(indexVal.ToFloat()) != 0 {
				// Split separators must match at q exactly
				q = int(vm.AdvanceStringIndex(subject, uint64(q), unicodeMatching))
				continue
			}
			matchStart := q

			matchedVal, err := vmInstance.GetProperty(result, "0")
			if err != nil {
				return vm.Undefined, err
			}
			matchedStr, err := toStringValue(vmInstance, matchedVal)
			if err != nil {
				return vm.Undefined, err
			}
			end := matchStart + matchedStr.AsString().Length()
			if end > size {
				end = size
			}

			// Empty separator at the previous end would not make progress
			if end == p {
				q = int(vm.AdvanceStringIndex(subject, uint64(q), unicodeMatching))
				continue
			}

			arr.Append(subject.Substring(p, matchStart))
			if uint32(arr.Length()) == lim {
				return resultVal, nil
			}
			p = end

			lenVal, err := vmInstance.GetProperty(result, "length")
			if err != nil {
				return vm.Undefined, err
			}
			numberOfCaptures := int(lenVal.ToFloat()) - 1
			if numberOfCaptures < 0 {
				numberOfCaptures = 0
			}
			for i := 1; i <= numberOfCaptures; i++ {
				capVal, err := vmInstance.GetProperty(result, strconv.Itoa(i))
				if err != nil {
					return vm.Undefined, err
				}
				arr.Append(capVal)
				if uint32(arr.Length()) == lim {
					return resultVal, nil
				}
			}

			q = p
		}

		arr.Append(subject.Substring(p, size))
		return resultVal, nil
	})
	regexpProto.DefineOwnPropertyByKey(vm.NewSymbolKey(vmInstance.SymbolSplit), splitFunc, &w, &e, &c)

	// RegExp constructor
	regexpCtor := vm.NewConstructorWithProps(2, false, "RegExp", func(args []vm.Value) (vm.Value, error) {
		patternV := argOrUndefined(args, 0)
		flagsV := argOrUndefined(args, 1)

		if existing := patternV.AsRegExpObject(); existing != nil {
			flags := existing.GetFlags()
			if flagsV.Type() != vm.TypeUndefined {
				fs, err := toStringValue(vmInstance, flagsV)
				if err != nil {
					return vm.Undefined, err
				}
				flags = fs.ToString()
			}
			return vmInstance.NewRegExp(existing.GetSource(), flags)
		}

		pattern := ""
		if patternV.Type() != vm.TypeUndefined {
			ps, err := toStringValue(vmInstance, patternV)
			if err != nil {
				return vm.Undefined, err
			}
			pattern = ps.ToString()
		}
		flags := ""
		if flagsV.Type() != vm.TypeUndefined {
			fs, err := toStringValue(vmInstance, flagsV)
			if err != nil {
				return vm.Undefined, err
			}
			flags = fs.ToString()
		}
		return vmInstance.NewRegExp(pattern, flags)
	})

	regexpProto.SetOwnNonEnumerable("constructor", regexpCtor)
	regexpCtor.AsNativeFunctionWithProps().Properties.SetOwnNonEnumerable("prototype", vmInstance.RegExpPrototype)

	if err := ctx.DefineGlobal("RegExp", regexpCtor); err != nil {
		return err
	}

	// Everything intrinsic is in place; record the pristine identity the
	// fast-path classifier compares against.
	vmInstance.SealRegExpIntrinsics()
	return nil
}
