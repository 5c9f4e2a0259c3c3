// Package metadata interprets the self describing runtime metadata of a
// substrate node: module lookup, call encoding and storage key derivation.
package metadata

import (
	"fmt"
	"sort"
	"strings"

	"github.com/anyswap/substrate-client/scale"
)

// Metadata indexed runtime metadata. It is immutable once built
// and safe for concurrent use.
type Metadata struct {
	modules map[string]*ModuleMetadata
}

// ModuleMetadata module metadata
type ModuleMetadata struct {
	name       string
	callIndex  *uint8
	eventIndex *uint8
	calls      map[string]uint8
	callNames  []string
	callArgs   map[string][]CallArg
	storage    map[string]*StorageMetadata
	events     map[uint8]*ModuleEventMetadata
	constants  map[string]ConstantDecl
}

// ModuleEventMetadata event name and argument types in declaration order
type ModuleEventMetadata struct {
	Name      string
	Arguments []EventArg
}

// Parse parses a prefixed metadata blob
func Parse(blob []byte) (*Metadata, error) {
	runtime, err := DecodeRuntimeMetadata(blob)
	if err != nil {
		return nil, err
	}
	return New(runtime)
}

// New indexes decoded runtime metadata.
// Call and event indexes are counted separately in declaration order,
// modules without calls (events) do not take a call (event) index.
func New(runtime *RuntimeMetadata) (*Metadata, error) {
	modules := make(map[string]*ModuleMetadata, len(runtime.Modules))
	var callIndex, eventIndex int
	for i := range runtime.Modules {
		decl := &runtime.Modules[i]
		if _, exist := modules[decl.Name]; exist {
			return nil, fmt.Errorf("%w: duplicate module %v", ErrMalformedMetadata, decl.Name)
		}
		module, err := newModule(decl)
		if err != nil {
			return nil, err
		}
		if decl.Calls != nil {
			if callIndex > maxIndex {
				return nil, fmt.Errorf("%w: more than %d modules with calls", ErrMalformedMetadata, maxIndex+1)
			}
			index := uint8(callIndex)
			module.callIndex = &index
			callIndex++
		}
		if decl.Events != nil {
			if eventIndex > maxIndex {
				return nil, fmt.Errorf("%w: more than %d modules with events", ErrMalformedMetadata, maxIndex+1)
			}
			index := uint8(eventIndex)
			module.eventIndex = &index
			eventIndex++
		}
		modules[decl.Name] = module
	}
	return &Metadata{modules: modules}, nil
}

// call, event and module indexes are single bytes
const maxIndex = 255

func newModule(decl *ModuleDecl) (*ModuleMetadata, error) {
	if len(decl.Calls) > maxIndex+1 {
		return nil, fmt.Errorf("%w: %v has %d calls", ErrMalformedMetadata, decl.Name, len(decl.Calls))
	}
	if len(decl.Events) > maxIndex+1 {
		return nil, fmt.Errorf("%w: %v has %d events", ErrMalformedMetadata, decl.Name, len(decl.Events))
	}
	module := &ModuleMetadata{
		name:      decl.Name,
		calls:     make(map[string]uint8, len(decl.Calls)),
		callArgs:  make(map[string][]CallArg, len(decl.Calls)),
		storage:   make(map[string]*StorageMetadata),
		events:    make(map[uint8]*ModuleEventMetadata, len(decl.Events)),
		constants: make(map[string]ConstantDecl, len(decl.Constants)),
	}
	if decl.Storage != nil {
		for _, entry := range decl.Storage.Entries {
			module.storage[entry.Name] = &StorageMetadata{
				prefix:   decl.Storage.Prefix + " " + entry.Name,
				modifier: entry.Modifier,
				ty:       entry.Type,
				def:      entry.Default,
			}
		}
	}
	for i, call := range decl.Calls {
		module.calls[call.Name] = uint8(i)
		module.callNames = append(module.callNames, call.Name)
		module.callArgs[call.Name] = call.Args
	}
	for i, event := range decl.Events {
		args := make([]EventArg, 0, len(event.Args))
		for _, s := range event.Args {
			arg, err := ParseEventArg(s)
			if err != nil {
				return nil, fmt.Errorf("%v.%v: %w", decl.Name, event.Name, err)
			}
			args = append(args, arg)
		}
		module.events[uint8(i)] = &ModuleEventMetadata{Name: event.Name, Arguments: args}
	}
	for _, constant := range decl.Constants {
		module.constants[constant.Name] = constant
	}
	return module, nil
}

// Module gets module by name
func (m *Metadata) Module(name string) (*ModuleMetadata, error) {
	module, exist := m.modules[name]
	if !exist {
		return nil, fmt.Errorf("%w: %v", ErrModuleNotFound, name)
	}
	return module, nil
}

// ModuleByEventIndex gets the module owning the event index
func (m *Metadata) ModuleByEventIndex(index uint8) (*ModuleMetadata, error) {
	for _, module := range m.modules {
		if module.eventIndex != nil && *module.eventIndex == index {
			return module, nil
		}
	}
	return nil, fmt.Errorf("%w: module index %d", ErrEventNotFound, index)
}

// Modules returns all modules sorted by name
func (m *Metadata) Modules() []*ModuleMetadata {
	modules := make([]*ModuleMetadata, 0, len(m.modules))
	for _, module := range m.modules {
		modules = append(modules, module)
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].name < modules[j].name })
	return modules
}

// Call encodes a call of the named module and function
func (m *Metadata) Call(module, function string, args ...scale.Encodeable) ([]byte, error) {
	mod, err := m.Module(module)
	if err != nil {
		return nil, err
	}
	return mod.Call(function, args...)
}

// Pretty lists modules with their storage (s), calls (c) and events (e)
func (m *Metadata) Pretty() string {
	var sb strings.Builder
	for _, module := range m.Modules() {
		sb.WriteString(module.name)
		sb.WriteByte('\n')
		for _, name := range module.StorageNames() {
			sb.WriteString(" s  " + name + "\n")
		}
		for _, name := range module.CallNames() {
			sb.WriteString(" c  " + name + "\n")
		}
		for _, event := range module.Events() {
			sb.WriteString(" e  " + event.Name + "\n")
		}
	}
	return sb.String()
}

// Name returns module name
func (m *ModuleMetadata) Name() string {
	return m.name
}

// CallIndex returns the module's call index, ok is false if it has no calls
func (m *ModuleMetadata) CallIndex() (index uint8, ok bool) {
	if m.callIndex == nil {
		return 0, false
	}
	return *m.callIndex, true
}

// EventIndex returns the module's event index, ok is false if it has no events
func (m *ModuleMetadata) EventIndex() (index uint8, ok bool) {
	if m.eventIndex == nil {
		return 0, false
	}
	return *m.eventIndex, true
}

// Call encodes a call: module call index, function index, then the args in order
func (m *ModuleMetadata) Call(function string, args ...scale.Encodeable) ([]byte, error) {
	if m.callIndex == nil {
		return nil, fmt.Errorf("%w: %v", ErrCallIndexNotFound, m.name)
	}
	fnIndex, exist := m.calls[function]
	if !exist {
		return nil, fmt.Errorf("%w: %v.%v", ErrCallNotFound, m.name, function)
	}
	e := scale.NewEncoder()
	e.PushByte(*m.callIndex)
	e.PushByte(fnIndex)
	for _, arg := range args {
		e.Encode(arg)
	}
	return e.Bytes(), nil
}

// CallArgs returns the declared arguments of a call
func (m *ModuleMetadata) CallArgs(function string) ([]CallArg, error) {
	args, exist := m.callArgs[function]
	if !exist {
		return nil, fmt.Errorf("%w: %v.%v", ErrCallNotFound, m.name, function)
	}
	return args, nil
}

// CallNames returns call names in call index order
func (m *ModuleMetadata) CallNames() []string {
	return m.callNames
}

// Storage gets storage entry by name
func (m *ModuleMetadata) Storage(entry string) (*StorageMetadata, error) {
	storage, exist := m.storage[entry]
	if !exist {
		return nil, fmt.Errorf("%w: %v.%v", ErrStorageNotFound, m.name, entry)
	}
	return storage, nil
}

// StorageNames returns sorted storage entry names
func (m *ModuleMetadata) StorageNames() []string {
	names := make([]string, 0, len(m.storage))
	for name := range m.storage {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Event gets event by index within the module
func (m *ModuleMetadata) Event(index uint8) (*ModuleEventMetadata, error) {
	event, exist := m.events[index]
	if !exist {
		return nil, fmt.Errorf("%w: %v event %d", ErrEventNotFound, m.name, index)
	}
	return event, nil
}

// EventByName gets event and its index by name
func (m *ModuleMetadata) EventByName(name string) (uint8, *ModuleEventMetadata, error) {
	for index, event := range m.events {
		if event.Name == name {
			return index, event, nil
		}
	}
	return 0, nil, fmt.Errorf("%w: %v.%v", ErrEventNotFound, m.name, name)
}

// Events returns events in index order
func (m *ModuleMetadata) Events() []*ModuleEventMetadata {
	events := make([]*ModuleEventMetadata, len(m.events))
	for index, event := range m.events {
		events[index] = event
	}
	return events
}

// Constant gets module constant by name
func (m *ModuleMetadata) Constant(name string) (ConstantDecl, bool) {
	constant, exist := m.constants[name]
	return constant, exist
}
