package vm

import (
	"strings"
	"unicode/utf16"
	"unsafe"

	"github.com/dlclark/regexp2"
)

// RegExpObject represents a regexp instance. It embeds PlainObject so it has
// a shape like any ordinary object; the intrinsic constructor gives every
// instance the pristine shape with lastIndex in slot 0.
type RegExpObject struct {
	PlainObject
	matcher     *regexp2.Regexp
	source      string
	flags       string
	global      bool
	ignoreCase  bool
	multiline   bool
	dotAll      bool
	unicode     bool
	sticky      bool
	groupNames  []string
}

// MatchInfo is the raw result of one successful built-in match: a flat
// sequence of capture register pairs (start, end code-unit offsets, or -1/-1
// for groups that did not participate) plus the subject they index into.
type MatchInfo struct {
	Registers   []int
	LastSubject Value
}

// NumberOfCaptureRegisters returns the register count (2x the group count).
func (m *MatchInfo) NumberOfCaptureRegisters() int {
	return len(m.Registers)
}

// Capture returns the register at the given index.
func (m *MatchInfo) Capture(index int) int {
	return m.Registers[index]
}

const validFlags = "dgimsuy"

// NewRegExp creates a regexp instance in this realm from pattern and flags.
func (vm *VM) NewRegExp(pattern, flags string) (Value, error) {
	seen := make(map[rune]bool)
	var global, ignoreCase, multiline, dotAll, unicode, sticky bool
	for _, f := range flags {
		if !strings.ContainsRune(validFlags, f) || seen[f] {
			return Undefined, vm.NewSyntaxError("Invalid regular expression flags: '" + flags + "'")
		}
		seen[f] = true
		switch f {
		case 'g':
			global = true
		case 'i':
			ignoreCase = true
		case 'm':
			multiline = true
		case 's':
			dotAll = true
		case 'u':
			unicode = true
		case 'y':
			sticky = true
		}
	}

	source := pattern
	if source == "" {
		source = "(?:)"
	}

	opts := regexp2.None
	if ignoreCase {
		opts |= regexp2.IgnoreCase
	}
	if multiline {
		opts |= regexp2.Multiline
	}
	if dotAll {
		opts |= regexp2.Singleline
	}
	matcher, err := regexp2.Compile(source, opts)
	if err != nil {
		return Undefined, vm.NewSyntaxError("Invalid regular expression: /" + source + "/" + flags + ": " + err.Error())
	}

	var groupNames []string
	for _, name := range matcher.GetGroupNames() {
		if !isDecimalName(name) {
			groupNames = append(groupNames, name)
		}
	}

	obj := &RegExpObject{
		PlainObject: PlainObject{
			shape:      vm.regexpShape,
			prototype:  vm.RegExpPrototype,
			properties: []Value{IntegerValue(0)},
			extensible: true,
		},
		matcher:    matcher,
		source:     source,
		flags:      flags,
		global:     global,
		ignoreCase: ignoreCase,
		multiline:  multiline,
		dotAll:     dotAll,
		unicode:    unicode,
		sticky:     sticky,
		groupNames: groupNames,
	}
	return RegExpValue(obj), nil
}

func isDecimalName(name string) bool {
	for _, c := range name {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(name) > 0
}

// RegExpValue creates a Value from a RegExpObject
func RegExpValue(r *RegExpObject) Value {
	return Value{typ: TypeRegExp, obj: unsafe.Pointer(r)}
}

// AsRegExp extracts a RegExpObject from a Value
func AsRegExp(v Value) *RegExpObject {
	return (*RegExpObject)(v.obj)
}

// IsRegExp checks if a Value is a genuine built-in regexp instance
func (v Value) IsRegExp() bool {
	return v.typ == TypeRegExp
}

// AsRegExpObject safely converts a Value to a RegExpObject, returns nil if not a regexp
func (v Value) AsRegExpObject() *RegExpObject {
	if v.typ != TypeRegExp {
		return nil
	}
	return AsRegExp(v)
}

func (r *RegExpObject) GetSource() string {
	return r.source
}

func (r *RegExpObject) GetFlags() string {
	return r.flags
}

func (r *RegExpObject) IsGlobal() bool {
	return r.global
}

func (r *RegExpObject) IsIgnoreCase() bool {
	return r.ignoreCase
}

func (r *RegExpObject) IsMultiline() bool {
	return r.multiline
}

func (r *RegExpObject) IsDotAll() bool {
	return r.dotAll
}

func (r *RegExpObject) IsUnicode() bool {
	return r.unicode
}

func (r *RegExpObject) IsSticky() bool {
	return r.sticky
}

// LastIndexSlot reads the dedicated cursor slot directly. Only valid for
// genuine instances; the slot exists in every shape derived from the pristine
// one because fields are append-only and lastIndex is non-configurable.
func (r *RegExpObject) LastIndexSlot() Value {
	return r.slot(regexpLastIndexSlot)
}

// SetLastIndexSlot writes the cursor slot directly, bypassing the property
// protocol. No user code can observe or intercept this write.
func (r *RegExpObject) SetLastIndexSlot(v Value) {
	r.setSlot(regexpLastIndexSlot, v)
}

// subjectRunes exposes the subject to the match engine. Without the u flag
// the pattern sees one rune per UTF-16 code unit (surrogate halves stay
// separate); with it, surrogate pairs decode to a single code point. The
// returned index table maps rune offsets back to code-unit offsets and has
// one extra entry for the end position.
func (r *RegExpObject) subjectRunes(s *StringObject) ([]rune, []int) {
	units := s.Units()
	if !r.unicode {
		runes := make([]rune, len(units))
		idx := make([]int, len(units)+1)
		for i, u := range units {
			runes[i] = rune(u)
			idx[i] = i
		}
		idx[len(units)] = len(units)
		return runes, idx
	}
	runes := make([]rune, 0, len(units))
	idx := make([]int, 0, len(units)+1)
	for i := 0; i < len(units); {
		idx = append(idx, i)
		c := units[i]
		if c >= 0xD800 && c <= 0xDBFF && i+1 < len(units) &&
			units[i+1] >= 0xDC00 && units[i+1] <= 0xDFFF {
			runes = append(runes, utf16.DecodeRune(rune(c), rune(units[i+1])))
			i += 2
		} else {
			runes = append(runes, rune(c))
			i++
		}
	}
	idx = append(idx, len(units))
	return runes, idx
}

// execFrom runs the match engine against s starting at the given code-unit
// offset. Returns nil MatchInfo when there is no match.
func (r *RegExpObject) execFrom(s *StringObject, start int, subject Value) (*MatchInfo, error) {
	runes, idx := r.subjectRunes(s)
	runeStart := len(runes)
	for ri := 0; ri < len(idx); ri++ {
		if idx[ri] >= start {
			runeStart = ri
			break
		}
	}
	m, err := r.matcher.FindRunesMatchStartingAt(runes, runeStart)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	groups := m.Groups()
	registers := make([]int, 0, len(groups)*2)
	for i := range groups {
		g := &groups[i]
		if len(g.Captures) == 0 {
			registers = append(registers, -1, -1)
			continue
		}
		registers = append(registers, idx[g.Index], idx[g.Index+g.Length])
	}
	return &MatchInfo{Registers: registers, LastSubject: subject}, nil
}

// RegExpBuiltinExec is the intrinsic matcher behind RegExp.prototype.exec:
// it consumes lastIndex for global/sticky patterns, anchors sticky matches,
// and produces the match-result array.
func (vm *VM) RegExpBuiltinExec(rv Value, sv Value) (Value, error) {
	r := rv.AsRegExpObject()
	if r == nil {
		return Undefined, vm.NewTypeError("Method RegExp.prototype.exec called on incompatible receiver " + rv.ToString())
	}
	if sv.Type() != TypeString {
		sv = NewString(sv.ToString())
	}
	s := sv.AsString()

	lastIndexVal, err := GetLastIndex(vm, rv)
	if err != nil {
		return Undefined, err
	}
	lastIndex, err := vm.ToLength(lastIndexVal)
	if err != nil {
		return Undefined, err
	}
	if !r.global && !r.sticky {
		lastIndex = 0
	}

	var info *MatchInfo
	if lastIndex <= uint64(s.Length()) {
		info, err = r.execFrom(s, int(lastIndex), sv)
		if err != nil {
			return Undefined, err
		}
	}
	// Sticky matches must start exactly at the cursor
	if info != nil && r.sticky && info.Registers[0] != int(lastIndex) {
		info = nil
	}

	if info == nil {
		if r.global || r.sticky {
			if err := SetLastIndex(vm, rv, 0); err != nil {
				return Undefined, err
			}
		}
		return Null, nil
	}

	if r.global || r.sticky {
		if err := SetLastIndex(vm, rv, uint64(info.Registers[1])); err != nil {
			return Undefined, err
		}
	}
	return vm.buildMatchResult(r, info), nil
}

// buildMatchResult constructs the exec result array: captured substrings
// (undefined for non-participating groups) plus index, input and groups.
func (vm *VM) buildMatchResult(r *RegExpObject, info *MatchInfo) Value {
	result := NewArray()
	arr := result.AsArray()
	numGroups := len(info.Registers) / 2
	for i := 0; i < numGroups; i++ {
		if capture, ok := GenericCaptureGetter(info, i); ok {
			arr.Append(capture)
		} else {
			arr.Append(Undefined)
		}
	}
	arr.SetOwn("index", IntegerValue(int32(info.Registers[0])))
	arr.SetOwn("input", info.LastSubject)

	if len(r.groupNames) == 0 {
		arr.SetOwn("groups", Undefined)
		return result
	}
	groups := NewObject(Null).AsPlainObject()
	for _, name := range r.groupNames {
		num := r.matcher.GroupNumberFromName(name)
		if capture, ok := GenericCaptureGetter(info, num); ok {
			groups.SetOwn(name, capture)
		} else {
			groups.SetOwn(name, Undefined)
		}
	}
	arr.SetOwn("groups", NewValueFromPlainObject(groups))
	return result
}
