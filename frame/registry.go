// Package frame describes the runtime modules the client knows how to call.
package frame

import (
	"fmt"

	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/events"
	"github.com/anyswap/substrate-client/metadata"
	"github.com/anyswap/substrate-client/scale"
	"github.com/anyswap/substrate-client/substrate"
)

// frame errors
var (
	ErrEventArgsMismatch = common.NewKindError(common.ErrLookup, "event arguments mismatch")
	ErrEventNotEmitted   = common.NewKindError(common.ErrNotFound, "event not emitted")
)

// Event an event name and its argument types
type Event struct {
	Name string
	Args []string
}

// Module a runtime module known to the client
type Module struct {
	Name      string
	Calls     []string
	Events    []Event
	TypeSizes map[string]int
}

// Decl module declaration with the calls and events, without arguments of calls
func (m *Module) Decl() metadata.ModuleDecl {
	decl := metadata.ModuleDecl{Name: m.Name}
	if m.Calls != nil {
		decl.Calls = make([]metadata.CallDecl, 0, len(m.Calls))
		for _, call := range m.Calls {
			decl.Calls = append(decl.Calls, metadata.CallDecl{Name: call})
		}
	}
	if m.Events != nil {
		decl.Events = make([]metadata.EventDecl, 0, len(m.Events))
		for _, event := range m.Events {
			decl.Events = append(decl.Events, metadata.EventDecl{Name: event.Name, Args: event.Args})
		}
	}
	return decl
}

// Check checks the node exposes the calls and events of the module
func (m *Module) Check(meta *metadata.Metadata) error {
	module, err := meta.Module(m.Name)
	if err != nil {
		return err
	}
	for _, call := range m.Calls {
		if _, err = module.CallArgs(call); err != nil {
			return err
		}
	}
	for _, event := range m.Events {
		_, found, err := module.EventByName(event.Name)
		if err != nil {
			return err
		}
		if len(found.Arguments) != len(event.Args) {
			return fmt.Errorf("%w: %v.%v has %d arguments, want %d", ErrEventArgsMismatch,
				m.Name, event.Name, len(found.Arguments), len(event.Args))
		}
	}
	return nil
}

// Registry registered modules
type Registry struct {
	modules []*Module
}

// NewRegistry new registry
func NewRegistry(modules ...*Module) *Registry {
	return &Registry{modules: modules}
}

// DefaultRegistry System, Balances and Contracts
func DefaultRegistry() *Registry {
	return NewRegistry(System, Balances, Contracts)
}

// Modules registered modules
func (r *Registry) Modules() []*Module {
	return r.modules
}

// Check checks every registered module
func (r *Registry) Check(meta *metadata.Metadata) error {
	for _, module := range r.modules {
		if err := module.Check(meta); err != nil {
			return err
		}
	}
	return nil
}

// RegisterTypes registers the type sizes of the modules on the decoder
func (r *Registry) RegisterTypes(decoder *events.Decoder) {
	for _, module := range r.modules {
		for name, size := range module.TypeSizes {
			decoder.RegisterTypeSize(name, size)
		}
	}
}

// DecodeEvent decodes the first event of module with the name into v
func DecodeEvent(result *substrate.ExtrinsicSuccess, module, name string, v scale.Decodeable) error {
	event, found := result.FindEvent(module, name)
	if !found {
		return fmt.Errorf("%w: %v.%v in extrinsic %v", ErrEventNotEmitted, module, name, result.Extrinsic)
	}
	if err := scale.Decode(event.Data, v); err != nil {
		return fmt.Errorf("decode %v: %w", event, err)
	}
	return nil
}
