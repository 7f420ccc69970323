// Package codec persists a store as zstd-compressed YAML and rebuilds it,
// provenance included.
package codec

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jeanpaul/cookbook/internal/item"
	"github.com/jeanpaul/cookbook/internal/schema"
	"github.com/jeanpaul/cookbook/internal/store"
)

//go:embed collection.schema.json
var collectionSchema string

const (
	// DocumentVersion is written into every file and required on load.
	DocumentVersion = 1

	// DefaultLevel is the zstd level files are written with.
	DefaultLevel = 5
)

// ErrBufferTooSmall is returned when a file decompresses to more than the
// capacity the caller allowed for it.
var ErrBufferTooSmall = errors.New("decompression buffer too small")

// document is the on-disk shape: flat records, no shared structure.
type document struct {
	Version   int        `yaml:"version"`
	Items     []record   `yaml:"items"`
	Exhausted [][]string `yaml:"exhausted,flow"`
}

type record struct {
	Name    string     `yaml:"name"`
	Emoji   string     `yaml:"emoji"`
	IsNew   bool       `yaml:"is_new"`
	Parents [][]string `yaml:"parents,flow"`
}

// Codec turns stores into bytes and back.
type Codec struct {
	level     zstd.EncoderLevel
	validator *schema.Validator
	log       *zap.Logger
}

// New returns a codec writing at the given zstd level (1-22; anything else
// falls back to DefaultLevel).
func New(level int, log *zap.Logger) *Codec {
	if level < 1 || level > 22 {
		level = DefaultLevel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Codec{
		level:     zstd.EncoderLevelFromZstd(level),
		validator: schema.NewValidator(),
		log:       log.Named("codec"),
	}
}

// Encode flattens the store and compresses it.
func (c *Codec) Encode(st *store.Store) ([]byte, error) {
	items, exhausted := st.Snapshot()

	doc := document{
		Version:   DocumentVersion,
		Items:     make([]record, 0, len(items)),
		Exhausted: make([][]string, 0, len(exhausted)),
	}
	for _, it := range items {
		rec := record{
			Name:    it.Name,
			Emoji:   it.Emoji,
			IsNew:   it.IsNew,
			Parents: make([][]string, 0, len(it.Parents)),
		}
		for _, p := range it.Parents {
			rec.Parents = append(rec.Parents, []string{p.First, p.Second})
		}
		doc.Items = append(doc.Items, rec)
	}
	for _, p := range exhausted {
		doc.Exhausted = append(doc.Exhausted, []string{p.First, p.Second})
	}

	raw, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, &PersistenceError{Op: "encode", Err: err}
	}
	if err := c.check(raw); err != nil {
		return nil, err
	}

	// Single-segment frames carry their content size, which is what the
	// capacity check on load compares against.
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(c.level),
		zstd.WithSingleSegment(true))
	if err != nil {
		return nil, &PersistenceError{Op: "compress", Err: err}
	}
	defer enc.Close()

	out := enc.EncodeAll(raw, make([]byte, 0, len(raw)/4))
	c.log.Debug("encoded collection",
		zap.Int("items", len(items)),
		zap.Int("exhausted", len(exhausted)),
		zap.Int("raw_bytes", len(raw)),
		zap.Int("compressed_bytes", len(out)))
	return out, nil
}

// Decode decompresses data, which must expand to at most capacity bytes,
// validates it and rebuilds the store. Nothing is returned unless the whole
// document loads.
func (c *Codec) Decode(data []byte, capacity int) (*store.Store, error) {
	raw, err := decompress(data, capacity)
	if err != nil {
		return nil, err
	}

	if err := c.check(raw); err != nil {
		return nil, err
	}

	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, &SchemaViolation{Problems: []string{err.Error()}}
	}

	return rebuild(doc)
}

// check validates a raw document against the collection schema. Encode runs
// it too, so a store that could not be loaded back is never written.
func (c *Codec) check(raw []byte) error {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return &SchemaViolation{Problems: []string{err.Error()}}
	}
	if err := c.validator.Validate(collectionSchema, generic); err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			return &SchemaViolation{Problems: verr.Problems}
		}
		return &PersistenceError{Op: "validate", Err: err}
	}
	return nil
}

func decompress(data []byte, capacity int) ([]byte, error) {
	if capacity <= 0 {
		return nil, &PersistenceError{Op: "decompress", Err: fmt.Errorf("%w: capacity %d", ErrBufferTooSmall, capacity)}
	}

	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(uint64(capacity)))
	if err != nil {
		return nil, &PersistenceError{Op: "decompress", Err: err}
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
			err = fmt.Errorf("%w: more than %d bytes: %v", ErrBufferTooSmall, capacity, err)
		}
		return nil, &PersistenceError{Op: "decompress", Err: err}
	}
	return raw, nil
}

// rebuild inserts every item before attaching any parents, so a parent pair
// may name an item that appears later in the file, or the item itself.
func rebuild(doc document) (*store.Store, error) {
	st := store.Empty()

	var dupes []string
	for _, rec := range doc.Items {
		if !st.Put(item.New(rec.Name, rec.Emoji, rec.IsNew)) {
			dupes = append(dupes, fmt.Sprintf("duplicate item %q", rec.Name))
		}
	}
	if len(dupes) > 0 {
		return nil, &SchemaViolation{Problems: dupes}
	}

	for _, rec := range doc.Items {
		for _, p := range rec.Parents {
			// Parent names are kept literally, even when they no longer
			// name an item.
			st.InsertOrUpdate(rec.Name, "", false, item.Canonical(p[0], p[1]))
		}
	}
	for _, p := range doc.Exhausted {
		st.MarkExhausted(p[0], p[1])
	}
	return st, nil
}
