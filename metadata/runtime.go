package metadata

import (
	"fmt"

	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/scale"
)

// wire constants
const (
	MagicNumber     uint32 = 0x6174656d // "meta" little endian
	MetadataVersion uint8  = 8
)

// StorageModifier storage entry modifier
type StorageModifier uint8

// storage modifiers
const (
	ModifierOptional StorageModifier = iota
	ModifierDefault
)

// String implements the stringer interface
func (m StorageModifier) String() string {
	switch m {
	case ModifierOptional:
		return "Optional"
	case ModifierDefault:
		return "Default"
	default:
		return fmt.Sprintf("StorageModifier(%d)", uint8(m))
	}
}

// EntryKind storage entry type tag
type EntryKind uint8

// storage entry kinds
const (
	PlainEntry EntryKind = iota
	MapEntry
	DoubleMapEntry
)

// String implements the stringer interface
func (k EntryKind) String() string {
	switch k {
	case PlainEntry:
		return "Plain"
	case MapEntry:
		return "Map"
	case DoubleMapEntry:
		return "DoubleMap"
	default:
		return fmt.Sprintf("EntryKind(%d)", uint8(k))
	}
}

// RuntimeMetadata the module list carried by a version 8 metadata blob
type RuntimeMetadata struct {
	Modules []ModuleDecl
}

// ModuleDecl module declaration.
// A nil Calls or Events means the module has no such section,
// a non nil empty slice is an empty section.
type ModuleDecl struct {
	Name      string
	Storage   *StorageDecl
	Calls     []CallDecl
	Events    []EventDecl
	Constants []ConstantDecl
	Errors    []ErrorDecl
}

// StorageDecl storage section
type StorageDecl struct {
	Prefix  string
	Entries []EntryDecl
}

// EntryDecl storage entry
type EntryDecl struct {
	Name     string
	Modifier StorageModifier
	Type     EntryType
	Default  []byte
	Docs     []string
}

// EntryType storage entry type. Plain entries only use Value.
type EntryType struct {
	Kind       EntryKind
	Hasher     common.StorageHasher
	Key        string
	Key2       string
	Value      string
	IsLinked   bool
	Key2Hasher common.StorageHasher
}

// CallArg call argument
type CallArg struct {
	Name string
	Type string
}

// CallDecl call declaration
type CallDecl struct {
	Name string
	Args []CallArg
	Docs []string
}

// EventDecl event declaration, Args are type names
type EventDecl struct {
	Name string
	Args []string
	Docs []string
}

// ConstantDecl module constant
type ConstantDecl struct {
	Name  string
	Type  string
	Value []byte
	Docs  []string
}

// ErrorDecl module error
type ErrorDecl struct {
	Name string
	Docs []string
}

// Encode encodes to a prefixed metadata blob
func (r *RuntimeMetadata) Encode() []byte {
	e := scale.NewEncoder()
	e.EncodeUint32(MagicNumber)
	e.PushByte(MetadataVersion)
	e.EncodeCompact(uint64(len(r.Modules)))
	for i := range r.Modules {
		r.Modules[i].EncodeTo(e)
	}
	return e.Bytes()
}

// EncodeTo implements scale.Encodeable
func (m *ModuleDecl) EncodeTo(e *scale.Encoder) {
	e.EncodeString(m.Name)
	if m.Storage == nil {
		e.PushByte(0)
	} else {
		e.PushByte(1)
		e.EncodeString(m.Storage.Prefix)
		e.EncodeCompact(uint64(len(m.Storage.Entries)))
		for i := range m.Storage.Entries {
			m.Storage.Entries[i].EncodeTo(e)
		}
	}
	if m.Calls == nil {
		e.PushByte(0)
	} else {
		e.PushByte(1)
		e.EncodeCompact(uint64(len(m.Calls)))
		for _, call := range m.Calls {
			e.EncodeString(call.Name)
			e.EncodeCompact(uint64(len(call.Args)))
			for _, arg := range call.Args {
				e.EncodeString(arg.Name)
				e.EncodeString(arg.Type)
			}
			encodeStrings(e, call.Docs)
		}
	}
	if m.Events == nil {
		e.PushByte(0)
	} else {
		e.PushByte(1)
		e.EncodeCompact(uint64(len(m.Events)))
		for _, event := range m.Events {
			e.EncodeString(event.Name)
			encodeStrings(e, event.Args)
			encodeStrings(e, event.Docs)
		}
	}
	e.EncodeCompact(uint64(len(m.Constants)))
	for _, constant := range m.Constants {
		e.EncodeString(constant.Name)
		e.EncodeString(constant.Type)
		e.EncodeBytes(constant.Value)
		encodeStrings(e, constant.Docs)
	}
	e.EncodeCompact(uint64(len(m.Errors)))
	for _, merr := range m.Errors {
		e.EncodeString(merr.Name)
		encodeStrings(e, merr.Docs)
	}
}

// EncodeTo implements scale.Encodeable
func (entry *EntryDecl) EncodeTo(e *scale.Encoder) {
	e.EncodeString(entry.Name)
	e.PushByte(byte(entry.Modifier))
	e.PushByte(byte(entry.Type.Kind))
	switch entry.Type.Kind {
	case MapEntry:
		e.PushByte(byte(entry.Type.Hasher))
		e.EncodeString(entry.Type.Key)
		e.EncodeString(entry.Type.Value)
		e.EncodeBool(entry.Type.IsLinked)
	case DoubleMapEntry:
		e.PushByte(byte(entry.Type.Hasher))
		e.EncodeString(entry.Type.Key)
		e.EncodeString(entry.Type.Key2)
		e.EncodeString(entry.Type.Value)
		e.PushByte(byte(entry.Type.Key2Hasher))
	default:
		e.EncodeString(entry.Type.Value)
	}
	e.EncodeBytes(entry.Default)
	encodeStrings(e, entry.Docs)
}

func encodeStrings(e *scale.Encoder, list []string) {
	e.EncodeCompact(uint64(len(list)))
	for _, s := range list {
		e.EncodeString(s)
	}
}

// DecodeRuntimeMetadata decodes a prefixed metadata blob
func DecodeRuntimeMetadata(blob []byte) (*RuntimeMetadata, error) {
	d := scale.NewDecoder(blob)
	magic, err := d.DecodeUint32()
	if err != nil || magic != MagicNumber {
		return nil, ErrInvalidPrefix
	}
	version, err := d.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
	}
	if version != MetadataVersion {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVersion, version)
	}
	n, err := d.DecodeLength()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
	}
	r := &RuntimeMetadata{Modules: make([]ModuleDecl, n)}
	for i := range r.Modules {
		if err = r.Modules[i].DecodeFrom(d); err != nil {
			return nil, fmt.Errorf("%w: module %d: %v", ErrMalformedMetadata, i, err)
		}
	}
	if d.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedMetadata, d.Remaining())
	}
	return r, nil
}

// DecodeFrom implements scale.Decodeable
func (m *ModuleDecl) DecodeFrom(d *scale.Decoder) (err error) {
	if m.Name, err = d.DecodeString(); err != nil {
		return err
	}
	some, err := d.DecodeOptionTag()
	if err != nil {
		return err
	}
	if some {
		m.Storage = &StorageDecl{}
		if m.Storage.Prefix, err = d.DecodeString(); err != nil {
			return err
		}
		n, err := d.DecodeLength()
		if err != nil {
			return err
		}
		m.Storage.Entries = make([]EntryDecl, n)
		for i := range m.Storage.Entries {
			if err = m.Storage.Entries[i].DecodeFrom(d); err != nil {
				return err
			}
		}
	}
	if m.Calls, err = decodeCalls(d); err != nil {
		return err
	}
	if m.Events, err = decodeEvents(d); err != nil {
		return err
	}
	if m.Constants, err = decodeConstants(d); err != nil {
		return err
	}
	m.Errors, err = decodeErrors(d)
	return err
}

func decodeCalls(d *scale.Decoder) ([]CallDecl, error) {
	some, err := d.DecodeOptionTag()
	if err != nil || !some {
		return nil, err
	}
	n, err := d.DecodeLength()
	if err != nil {
		return nil, err
	}
	calls := make([]CallDecl, n)
	for i := range calls {
		call := &calls[i]
		if call.Name, err = d.DecodeString(); err != nil {
			return nil, err
		}
		argc, err := d.DecodeLength()
		if err != nil {
			return nil, err
		}
		if argc > 0 {
			call.Args = make([]CallArg, argc)
		}
		for j := range call.Args {
			if call.Args[j].Name, err = d.DecodeString(); err != nil {
				return nil, err
			}
			if call.Args[j].Type, err = d.DecodeString(); err != nil {
				return nil, err
			}
		}
		if call.Docs, err = d.DecodeStrings(); err != nil {
			return nil, err
		}
	}
	return calls, nil
}

func decodeEvents(d *scale.Decoder) ([]EventDecl, error) {
	some, err := d.DecodeOptionTag()
	if err != nil || !some {
		return nil, err
	}
	n, err := d.DecodeLength()
	if err != nil {
		return nil, err
	}
	events := make([]EventDecl, n)
	for i := range events {
		event := &events[i]
		if event.Name, err = d.DecodeString(); err != nil {
			return nil, err
		}
		if event.Args, err = d.DecodeStrings(); err != nil {
			return nil, err
		}
		if event.Docs, err = d.DecodeStrings(); err != nil {
			return nil, err
		}
	}
	return events, nil
}

func decodeConstants(d *scale.Decoder) ([]ConstantDecl, error) {
	n, err := d.DecodeLength()
	if err != nil || n == 0 {
		return nil, err
	}
	constants := make([]ConstantDecl, n)
	for i := range constants {
		constant := &constants[i]
		if constant.Name, err = d.DecodeString(); err != nil {
			return nil, err
		}
		if constant.Type, err = d.DecodeString(); err != nil {
			return nil, err
		}
		if constant.Value, err = d.DecodeBytes(); err != nil {
			return nil, err
		}
		if constant.Docs, err = d.DecodeStrings(); err != nil {
			return nil, err
		}
	}
	return constants, nil
}

func decodeErrors(d *scale.Decoder) ([]ErrorDecl, error) {
	n, err := d.DecodeLength()
	if err != nil || n == 0 {
		return nil, err
	}
	errs := make([]ErrorDecl, n)
	for i := range errs {
		if errs[i].Name, err = d.DecodeString(); err != nil {
			return nil, err
		}
		if errs[i].Docs, err = d.DecodeStrings(); err != nil {
			return nil, err
		}
	}
	return errs, nil
}

// DecodeFrom implements scale.Decodeable
func (entry *EntryDecl) DecodeFrom(d *scale.Decoder) (err error) {
	if entry.Name, err = d.DecodeString(); err != nil {
		return err
	}
	modifier, err := d.ReadByte()
	if err != nil {
		return err
	}
	entry.Modifier = StorageModifier(modifier)
	if entry.Modifier > ModifierDefault {
		return fmt.Errorf("entry %v: unknown modifier %d", entry.Name, modifier)
	}
	kind, err := d.ReadByte()
	if err != nil {
		return err
	}
	ty := &entry.Type
	ty.Kind = EntryKind(kind)
	switch ty.Kind {
	case PlainEntry:
		if ty.Value, err = d.DecodeString(); err != nil {
			return err
		}
	case MapEntry:
		if ty.Hasher, err = decodeHasher(d); err != nil {
			return err
		}
		if ty.Key, err = d.DecodeString(); err != nil {
			return err
		}
		if ty.Value, err = d.DecodeString(); err != nil {
			return err
		}
		if ty.IsLinked, err = d.DecodeBool(); err != nil {
			return err
		}
	case DoubleMapEntry:
		if ty.Hasher, err = decodeHasher(d); err != nil {
			return err
		}
		if ty.Key, err = d.DecodeString(); err != nil {
			return err
		}
		if ty.Key2, err = d.DecodeString(); err != nil {
			return err
		}
		if ty.Value, err = d.DecodeString(); err != nil {
			return err
		}
		if ty.Key2Hasher, err = decodeHasher(d); err != nil {
			return err
		}
	default:
		return fmt.Errorf("entry %v: unknown entry type %d", entry.Name, kind)
	}
	if entry.Default, err = d.DecodeBytes(); err != nil {
		return err
	}
	entry.Docs, err = d.DecodeStrings()
	return err
}

func decodeHasher(d *scale.Decoder) (common.StorageHasher, error) {
	b, err := d.ReadByte()
	if err != nil {
		return 0, err
	}
	hasher := common.StorageHasher(b)
	if !hasher.IsValid() {
		return 0, fmt.Errorf("unknown storage hasher %d", b)
	}
	return hasher, nil
}
