package vm

import "testing"

func TestNewRegExpFlags(t *testing.T) {
	vmInstance := NewVM()

	t.Run("all flags", func(t *testing.T) {
		rv := mustNewRegExp(t, vmInstance, "a", "dgimsuy")
		r := rv.AsRegExpObject()
		if !r.IsGlobal() || !r.IsIgnoreCase() || !r.IsMultiline() || !r.IsDotAll() || !r.IsUnicode() || !r.IsSticky() {
			t.Errorf("flags not all set: %q", r.GetFlags())
		}
	})

	t.Run("duplicate flag", func(t *testing.T) {
		_, err := vmInstance.NewRegExp("a", "gg")
		if name := errorName(t, err); name != "SyntaxError" {
			t.Errorf("error name = %q, want SyntaxError", name)
		}
	})

	t.Run("unknown flag", func(t *testing.T) {
		_, err := vmInstance.NewRegExp("a", "x")
		if name := errorName(t, err); name != "SyntaxError" {
			t.Errorf("error name = %q, want SyntaxError", name)
		}
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := vmInstance.NewRegExp("(", "")
		if name := errorName(t, err); name != "SyntaxError" {
			t.Errorf("error name = %q, want SyntaxError", name)
		}
	})

	t.Run("empty pattern source", func(t *testing.T) {
		rv := mustNewRegExp(t, vmInstance, "", "")
		if src := rv.AsRegExpObject().GetSource(); src != "(?:)" {
			t.Errorf("source = %q, want %q", src, "(?:)")
		}
	})
}

func execIndex(t *testing.T, vmInstance *VM, result Value) int {
	t.Helper()
	index, err := vmInstance.GetProperty(result, "index")
	if err != nil {
		t.Fatalf("GetProperty(index): %v", err)
	}
	return int(index.ToFloat())
}

func TestBuiltinExecBasic(t *testing.T) {
	vmInstance := NewVM()
	rv := mustNewRegExp(t, vmInstance, `(\d+)`, "")

	result, err := vmInstance.RegExpBuiltinExec(rv, NewString("a 42"))
	if err != nil {
		t.Fatalf("RegExpBuiltinExec: %v", err)
	}
	arr := result.AsArray()
	if arr.Length() != 2 {
		t.Fatalf("result length = %d, want 2", arr.Length())
	}
	if got := arr.Get(0).ToString(); got != "42" {
		t.Errorf("match = %q, want %q", got, "42")
	}
	if got := arr.Get(1).ToString(); got != "42" {
		t.Errorf("capture 1 = %q, want %q", got, "42")
	}
	if got := execIndex(t, vmInstance, result); got != 2 {
		t.Errorf("index = %d, want 2", got)
	}
	input, _ := arr.GetOwn("input")
	if input.ToString() != "a 42" {
		t.Errorf("input = %q, want %q", input.ToString(), "a 42")
	}
	groups, _ := arr.GetOwn("groups")
	if groups.Type() != TypeUndefined {
		t.Errorf("groups = %v, want undefined", groups.ToString())
	}
}

func TestBuiltinExecGlobalProgression(t *testing.T) {
	vmInstance := NewVM()
	rv := mustNewRegExp(t, vmInstance, "a", "g")
	subject := NewString("aba")

	result, err := vmInstance.RegExpBuiltinExec(rv, subject)
	if err != nil {
		t.Fatalf("first exec: %v", err)
	}
	if got := execIndex(t, vmInstance, result); got != 0 {
		t.Errorf("first index = %d, want 0", got)
	}
	if cursor := rv.AsRegExpObject().LastIndexSlot(); cursor.AsInteger() != 1 {
		t.Errorf("cursor after first = %v, want 1", cursor.ToString())
	}

	result, err = vmInstance.RegExpBuiltinExec(rv, subject)
	if err != nil {
		t.Fatalf("second exec: %v", err)
	}
	if got := execIndex(t, vmInstance, result); got != 2 {
		t.Errorf("second index = %d, want 2", got)
	}

	result, err = vmInstance.RegExpBuiltinExec(rv, subject)
	if err != nil {
		t.Fatalf("third exec: %v", err)
	}
	if result.Type() != TypeNull {
		t.Errorf("third result = %v, want null", result.ToString())
	}
	if cursor := rv.AsRegExpObject().LastIndexSlot(); cursor.AsInteger() != 0 {
		t.Errorf("cursor after exhaustion = %v, want 0", cursor.ToString())
	}
}

func TestBuiltinExecCursorBeyondLength(t *testing.T) {
	vmInstance := NewVM()
	rv := mustNewRegExp(t, vmInstance, "a", "g")
	if err := SetLastIndex(vmInstance, rv, 10); err != nil {
		t.Fatalf("SetLastIndex: %v", err)
	}

	result, err := vmInstance.RegExpBuiltinExec(rv, NewString("abc"))
	if err != nil {
		t.Fatalf("RegExpBuiltinExec: %v", err)
	}
	if result.Type() != TypeNull {
		t.Errorf("result = %v, want null", result.ToString())
	}
	if cursor := rv.AsRegExpObject().LastIndexSlot(); cursor.AsInteger() != 0 {
		t.Errorf("cursor = %v, want 0", cursor.ToString())
	}
}

func TestBuiltinExecNonGlobalIgnoresCursor(t *testing.T) {
	vmInstance := NewVM()
	rv := mustNewRegExp(t, vmInstance, "b", "")
	if err := SetLastIndex(vmInstance, rv, 5); err != nil {
		t.Fatalf("SetLastIndex: %v", err)
	}

	result, err := vmInstance.RegExpBuiltinExec(rv, NewString("abc"))
	if err != nil {
		t.Fatalf("RegExpBuiltinExec: %v", err)
	}
	if got := execIndex(t, vmInstance, result); got != 1 {
		t.Errorf("index = %d, want 1", got)
	}
	// Non-global, non-sticky matching leaves the cursor alone.
	if cursor := rv.AsRegExpObject().LastIndexSlot(); cursor.AsInteger() != 5 {
		t.Errorf("cursor = %v, want 5", cursor.ToString())
	}
}

func TestBuiltinExecSticky(t *testing.T) {
	vmInstance := NewVM()
	rv := mustNewRegExp(t, vmInstance, "b", "y")
	subject := NewString("abc")

	// Sticky match must start exactly at the cursor.
	result, err := vmInstance.RegExpBuiltinExec(rv, subject)
	if err != nil {
		t.Fatalf("first exec: %v", err)
	}
	if result.Type() != TypeNull {
		t.Errorf("result = %v, want null", result.ToString())
	}
	if cursor := rv.AsRegExpObject().LastIndexSlot(); cursor.AsInteger() != 0 {
		t.Errorf("cursor after miss = %v, want 0", cursor.ToString())
	}

	if err := SetLastIndex(vmInstance, rv, 1); err != nil {
		t.Fatalf("SetLastIndex: %v", err)
	}
	result, err = vmInstance.RegExpBuiltinExec(rv, subject)
	if err != nil {
		t.Fatalf("second exec: %v", err)
	}
	if got := execIndex(t, vmInstance, result); got != 1 {
		t.Errorf("index = %d, want 1", got)
	}
	if cursor := rv.AsRegExpObject().LastIndexSlot(); cursor.AsInteger() != 2 {
		t.Errorf("cursor after hit = %v, want 2", cursor.ToString())
	}
}

func TestBuiltinExecNamedGroups(t *testing.T) {
	vmInstance := NewVM()
	rv := mustNewRegExp(t, vmInstance, `(?<year>\d{4})-(?<month>\d{2})`, "")

	result, err := vmInstance.RegExpBuiltinExec(rv, NewString("on 2024-06-01"))
	if err != nil {
		t.Fatalf("RegExpBuiltinExec: %v", err)
	}
	arr := result.AsArray()
	groupsVal, _ := arr.GetOwn("groups")
	groups := groupsVal.AsPlainObject()
	if groups == nil {
		t.Fatal("groups is not an object")
	}
	year, _ := groups.GetOwn("year")
	month, _ := groups.GetOwn("month")
	if year.ToString() != "2024" || month.ToString() != "06" {
		t.Errorf("groups = {year: %q, month: %q}, want {2024, 06}", year.ToString(), month.ToString())
	}
}

func TestBuiltinExecNonParticipatingGroup(t *testing.T) {
	vmInstance := NewVM()
	rv := mustNewRegExp(t, vmInstance, "(a)|(b)", "")

	result, err := vmInstance.RegExpBuiltinExec(rv, NewString("b"))
	if err != nil {
		t.Fatalf("RegExpBuiltinExec: %v", err)
	}
	arr := result.AsArray()
	if arr.Get(1).Type() != TypeUndefined {
		t.Errorf("capture 1 = %v, want undefined", arr.Get(1).ToString())
	}
	if arr.Get(2).ToString() != "b" {
		t.Errorf("capture 2 = %q, want %q", arr.Get(2).ToString(), "b")
	}
}

func TestBuiltinExecUnicodeIndices(t *testing.T) {
	vmInstance := NewVM()
	rv := mustNewRegExp(t, vmInstance, ".", "gu")
	subject := NewString("\U0001F600a")

	result, err := vmInstance.RegExpBuiltinExec(rv, subject)
	if err != nil {
		t.Fatalf("first exec: %v", err)
	}
	if got := execIndex(t, vmInstance, result); got != 0 {
		t.Errorf("first index = %d, want 0", got)
	}
	if got := result.AsArray().Get(0).AsString().Length(); got != 2 {
		t.Errorf("first match length = %d code units, want 2", got)
	}
	if cursor := rv.AsRegExpObject().LastIndexSlot(); cursor.AsInteger() != 2 {
		t.Errorf("cursor = %v, want 2", cursor.ToString())
	}

	result, err = vmInstance.RegExpBuiltinExec(rv, subject)
	if err != nil {
		t.Fatalf("second exec: %v", err)
	}
	if got := execIndex(t, vmInstance, result); got != 2 {
		t.Errorf("second index = %d, want 2", got)
	}
	if got := result.AsArray().Get(0).ToString(); got != "a" {
		t.Errorf("second match = %q, want %q", got, "a")
	}
}

func TestBuiltinExecNonUnicodeSeesCodeUnits(t *testing.T) {
	vmInstance := NewVM()
	rv := mustNewRegExp(t, vmInstance, ".", "g")
	subject := NewString("\U0001F600")

	result, err := vmInstance.RegExpBuiltinExec(rv, subject)
	if err != nil {
		t.Fatalf("first exec: %v", err)
	}
	match := result.AsArray().Get(0).AsString()
	if match.Length() != 1 || match.CharCodeAt(0) != 0xD83D {
		t.Errorf("first match = %d units, first unit %#x, want 1 unit 0xd83d", match.Length(), match.CharCodeAt(0))
	}

	result, err = vmInstance.RegExpBuiltinExec(rv, subject)
	if err != nil {
		t.Fatalf("second exec: %v", err)
	}
	if got := execIndex(t, vmInstance, result); got != 1 {
		t.Errorf("second index = %d, want 1", got)
	}
}

func TestBuiltinExecCoercesSubject(t *testing.T) {
	vmInstance := NewVM()
	rv := mustNewRegExp(t, vmInstance, `\d+`, "")

	result, err := vmInstance.RegExpBuiltinExec(rv, IntegerValue(123))
	if err != nil {
		t.Fatalf("RegExpBuiltinExec: %v", err)
	}
	if got := result.AsArray().Get(0).ToString(); got != "123" {
		t.Errorf("match = %q, want %q", got, "123")
	}
}
