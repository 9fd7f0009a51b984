package builtins

import "jsrt/pkg/vm"

// StandardInitializers returns the builtin modules in this distribution.
func StandardInitializers() []BuiltinInitializer {
	return []BuiltinInitializer{
		&ErrorInitializer{},
		&RegExpInitializer{},
	}
}

// InitializeStandard wires the standard builtins into a VM.
func InitializeStandard(vmInstance *vm.VM) error {
	return Initialize(vmInstance, StandardInitializers())
}

// NewRuntime creates a VM with the standard builtins installed.
func NewRuntime() (*vm.VM, error) {
	vmInstance := vm.NewVM()
	if err := InitializeStandard(vmInstance); err != nil {
		return nil, err
	}
	return vmInstance, nil
}
