package events

import (
	"fmt"
	"strings"
	"sync"

	"github.com/anyswap/substrate-client/common"
	"github.com/anyswap/substrate-client/log"
	"github.com/anyswap/substrate-client/metadata"
	"github.com/anyswap/substrate-client/scale"
	mapset "github.com/deckarep/golang-set"
)

var defaultTypeSizes = map[string]int{
	"bool":            1,
	"u8":              1,
	"u16":             2,
	"u32":             4,
	"u64":             8,
	"u128":            16,
	"i8":              1,
	"i16":             2,
	"i32":             4,
	"i64":             8,
	"i128":            16,
	"AccountId":       32,
	"AccountIndex":    4,
	"AuthorityId":     32,
	"AuthorityWeight": 8,
	"Balance":         16,
	"BlockNumber":     4,
	"Gas":             8,
	"Hash":            32,
	"H256":            32,
	"Index":           4,
	"Moment":          8,
	"PhantomData":     0,
	"PropIndex":       4,
	"ReferendumIndex": 4,
	"SessionIndex":    4,
	"VoteThreshold":   1,
}

var defaultTypeAliases = map[string]string{
	"Bytes":         "Vec<u8>",
	"DispatchError": "(Option<u8>,u8)",
}

// Decoder decodes System Events storage values.
// Registering types is safe while decoding runs concurrently.
type Decoder struct {
	meta *metadata.Metadata

	mu        sync.RWMutex
	typeSizes map[string]int
	aliases   map[string]metadata.EventArg
}

// NewDecoder new events decoder with the default type sizes registered
func NewDecoder(meta *metadata.Metadata) *Decoder {
	d := &Decoder{
		meta:      meta,
		typeSizes: make(map[string]int, len(defaultTypeSizes)),
		aliases:   make(map[string]metadata.EventArg, len(defaultTypeAliases)),
	}
	for name, size := range defaultTypeSizes {
		d.typeSizes[name] = size
	}
	for name, expr := range defaultTypeAliases {
		if err := d.RegisterTypeAlias(name, expr); err != nil {
			panic(err)
		}
	}
	return d
}

// Metadata returns the metadata events are resolved against
func (d *Decoder) Metadata() *metadata.Metadata {
	return d.meta
}

// RegisterTypeSize registers the encoded size of a primitive type
func (d *Decoder) RegisterTypeSize(name string, size int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.typeSizes[name] = size
}

// RegisterTypeAlias decodes type name as expr, eg. "Bytes" as "Vec<u8>"
func (d *Decoder) RegisterTypeAlias(name, expr string) error {
	arg, err := metadata.ParseEventArg(expr)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.aliases[name] = arg
	return nil
}

// CheckMissingTypeSizes returns names of the event argument primitives
// the decoder does not know how to size
func (d *Decoder) CheckMissingTypeSizes() mapset.Set {
	missing := mapset.NewSet()
	for _, module := range d.meta.Modules() {
		for _, event := range module.Events() {
			for _, arg := range event.Arguments {
				for _, primitive := range arg.Primitives() {
					if !d.isKnown(primitive, 0) {
						missing.Add(primitive)
					}
				}
			}
		}
	}
	return missing
}

// maxAliasDepth bounds alias resolution of self referencing aliases
const maxAliasDepth = 8

func (d *Decoder) isKnown(name string, depth int) bool {
	if depth > maxAliasDepth {
		return false
	}
	if inner, ok := wrapped(name, "Option<"); ok {
		return d.isKnown(inner, depth+1)
	}
	if _, ok := wrapped(name, "Compact<"); ok {
		return true
	}
	d.mu.RLock()
	_, sized := d.typeSizes[name]
	alias, aliased := d.aliases[name]
	d.mu.RUnlock()
	if sized {
		return true
	}
	if !aliased {
		return false
	}
	for _, primitive := range alias.Primitives() {
		if !d.isKnown(primitive, depth+1) {
			return false
		}
	}
	return true
}

// DecodeEvents decodes a System Events storage value
func (d *Decoder) DecodeEvents(data []byte) ([]EventRecord, error) {
	input := scale.NewDecoder(data)
	count, err := input.DecodeLength()
	if err != nil {
		return nil, err
	}
	records := make([]EventRecord, 0, count)
	for i := 0; i < count; i++ {
		record, err := d.decodeRecord(input, data)
		if err != nil {
			return nil, fmt.Errorf("event record %d: %w", i, err)
		}
		log.Trace("decoded event record", "phase", record.Phase, "event", record.Event)
		records = append(records, record)
	}
	if input.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingBytes, input.Remaining())
	}
	return records, nil
}

func (d *Decoder) decodeRecord(input *scale.Decoder, data []byte) (record EventRecord, err error) {
	if err = record.Phase.DecodeFrom(input); err != nil {
		return record, err
	}
	raw := &record.Event
	if raw.ModuleIndex, err = input.ReadByte(); err != nil {
		return record, err
	}
	module, err := d.meta.ModuleByEventIndex(raw.ModuleIndex)
	if err != nil {
		return record, err
	}
	if raw.EventIndex, err = input.ReadByte(); err != nil {
		return record, err
	}
	event, err := module.Event(raw.EventIndex)
	if err != nil {
		return record, err
	}
	raw.Module = module.Name()
	raw.Variant = event.Name

	start := input.Offset()
	for _, arg := range event.Arguments {
		if err = d.skipArg(input, arg, 0); err != nil {
			return record, fmt.Errorf("%v.%v: %w", raw.Module, raw.Variant, err)
		}
	}
	raw.Data = append([]byte(nil), data[start:input.Offset()]...)

	topics, err := input.DecodeLength()
	if err != nil {
		return record, err
	}
	for i := 0; i < topics; i++ {
		b, err := input.Next(common.HashLength)
		if err != nil {
			return record, err
		}
		record.Topics = append(record.Topics, common.BytesToHash(b))
	}
	return record, nil
}

func (d *Decoder) skipArg(input *scale.Decoder, arg metadata.EventArg, depth int) error {
	switch arg.Kind {
	case metadata.VecArg:
		n, err := input.DecodeCompact()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		start := input.Offset()
		if err = d.skipArg(input, *arg.Inner, depth); err != nil {
			return err
		}
		// element sizes are all zero or all at least one byte
		if input.Offset() == start {
			return nil
		}
		if n-1 > uint64(input.Remaining()) {
			return fmt.Errorf("%w: vec of %d elements", scale.ErrUnexpectedEOF, n)
		}
		for i := uint64(1); i < n; i++ {
			if err = d.skipArg(input, *arg.Inner, depth); err != nil {
				return err
			}
		}
		return nil
	case metadata.TupleArg:
		for _, elem := range arg.Elems {
			if err := d.skipArg(input, elem, depth); err != nil {
				return err
			}
		}
		return nil
	default:
		return d.skipPrimitive(input, arg.Name, depth)
	}
}

func (d *Decoder) skipPrimitive(input *scale.Decoder, name string, depth int) error {
	if depth > maxAliasDepth {
		return fmt.Errorf("%w: %v", ErrTypeSizeUnavailable, name)
	}
	if inner, ok := wrapped(name, "Option<"); ok {
		some, err := input.DecodeOptionTag()
		if err != nil || !some {
			return err
		}
		return d.skipNamed(input, inner, depth+1)
	}
	if _, ok := wrapped(name, "Compact<"); ok {
		_, err := input.DecodeCompactBig()
		return err
	}
	d.mu.RLock()
	size, sized := d.typeSizes[name]
	alias, aliased := d.aliases[name]
	d.mu.RUnlock()
	switch {
	case sized:
		return input.Skip(size)
	case aliased:
		return d.skipArg(input, alias, depth+1)
	default:
		return fmt.Errorf("%w: %v", ErrTypeSizeUnavailable, name)
	}
}

func (d *Decoder) skipNamed(input *scale.Decoder, name string, depth int) error {
	arg, err := metadata.ParseEventArg(name)
	if err != nil {
		return err
	}
	return d.skipArg(input, arg, depth)
}

func wrapped(name, open string) (inner string, ok bool) {
	if strings.HasPrefix(name, open) && strings.HasSuffix(name, ">") {
		return name[len(open) : len(name)-1], true
	}
	return "", false
}
