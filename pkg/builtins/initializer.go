package builtins

import (
	"sort"

	"jsrt/pkg/vm"
)

// BuiltinInitializer is implemented by each builtin module
type BuiltinInitializer interface {
	// Name returns the module name (e.g., "RegExp")
	Name() string

	// Priority returns initialization order (lower = earlier)
	Priority() int

	// InitRuntime creates runtime values for the VM
	InitRuntime(ctx *RuntimeContext) error
}

// RuntimeContext provides everything needed for runtime initialization
type RuntimeContext struct {
	// The VM instance
	VM *vm.VM

	// Define a global value
	DefineGlobal func(name string, value vm.Value) error
}

// Priority constants for initialization order
const (
	PriorityError  = 0  // Error constructors (TypeError etc.)
	PriorityRegExp = 13 // RegExp constructor
)

// Initialize runs the given initializers in priority order against one VM.
func Initialize(vmInstance *vm.VM, initializers []BuiltinInitializer) error {
	sorted := make([]BuiltinInitializer, len(initializers))
	copy(sorted, initializers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	ctx := &RuntimeContext{
		VM:           vmInstance,
		DefineGlobal: vmInstance.DefineGlobal,
	}
	for _, init := range sorted {
		if err := init.InitRuntime(ctx); err != nil {
			return err
		}
	}
	return nil
}
