// FILE: arrowship/src/internal/schema/deriver.go
package schema

import (
	"encoding/binary"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// idVersion is folded into every schema identifier so a change to the
// wire layout yields new identifiers.
const idVersion = 1

// Collector accumulates the distinct attribute (key, type) pairs seen
// for one event name within one input batch, in first-seen order.
// When a key reappears with a different type the first type wins and
// the conflict is counted.
type Collector struct {
	fields    []Field
	seen      map[string]FieldType
	conflicts uint64
}

func NewCollector() *Collector {
	return &Collector{seen: make(map[string]FieldType)}
}

// Add records one observed attribute key and its wire type.
func (c *Collector) Add(name string, t FieldType) {
	if prev, ok := c.seen[name]; ok {
		if prev != t {
			c.conflicts++
		}
		return
	}
	c.seen[name] = t
	c.fields = append(c.fields, Field{Name: name, Type: t})
}

// Fields returns the collected attribute fields in first-seen order.
func (c *Collector) Fields() []Field {
	return c.fields
}

// Conflicts returns how many rows re-declared a key with a
// conflicting type.
func (c *Collector) Conflicts() uint64 {
	return c.conflicts
}

// Deriver resolves schemas and caches one per event name. Identical
// attribute sets reuse the cached schema, keeping the identifier and
// field order stable across batches; a changed set replaces the cache
// entry. Not safe for concurrent use: encoding is single-threaded.
type Deriver struct {
	cache   map[string]*cached
	derived uint64
	reused  uint64
}

type cached struct {
	fingerprint string
	schema      *Schema
}

func NewDeriver() *Deriver {
	return &Deriver{cache: make(map[string]*cached)}
}

// DeriveOrReuse returns the schema for event covering the fixed
// record fields plus attrs. attrs must be the first-seen-ordered
// distinct field list from a Collector.
func (d *Deriver) DeriveOrReuse(event string, attrs []Field) *Schema {
	fp := fingerprint(attrs)
	if c, ok := d.cache[event]; ok && c.fingerprint == fp {
		d.reused++
		return c.schema
	}

	fields := make([]Field, 0, NumFixedFields+len(attrs))
	fields = append(fields, fixedFields[:]...)
	fields = append(fields, attrs...)

	s := &Schema{
		EventName: event,
		ID:        identifier(fields),
		Fields:    fields,
	}
	d.cache[event] = &cached{fingerprint: fp, schema: s}
	d.derived++
	return s
}

// Stats returns how many schemas were derived fresh and how many
// lookups hit the cache.
func (d *Deriver) Stats() (derived, reused uint64) {
	return d.derived, d.reused
}

// fingerprint is order-insensitive: the same key/type set observed in
// a different first-seen order still hits the cache, which keeps the
// identifier stable for identical sets within a process.
func fingerprint(attrs []Field) string {
	if len(attrs) == 0 {
		return ""
	}
	sorted := make([]Field, len(attrs))
	copy(sorted, attrs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].Type < sorted[j].Type
	})

	var b strings.Builder
	for _, f := range sorted {
		b.WriteString(f.Name)
		b.WriteByte(0x00)
		b.WriteByte(byte(f.Type))
		b.WriteByte(0x1e)
	}
	return b.String()
}

// identifier hashes the ordered field layout; the first eight bytes
// of the digest form the schema id.
func identifier(fields []Field) uint64 {
	buf := make([]byte, 0, 256)
	buf = append(buf, idVersion)
	for _, f := range fields {
		buf = binary.AppendUvarint(buf, uint64(len(f.Name)))
		buf = append(buf, f.Name...)
		buf = append(buf, byte(f.Type))
	}
	sum := blake3.Sum256(buf)
	return binary.LittleEndian.Uint64(sum[:8])
}
