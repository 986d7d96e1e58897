// Package snapshot implements the registry's save/load wire format: a
// small tagged binary layout built directly on encoding/binary rather
// than a general-purpose serialization library, since no library in the
// stack produces this exact magic-delimited, length-prefixed,
// caller-ordered block layout (see the project's DESIGN.md for why this
// one corner of the system stays on the standard library).
package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"fatpecs"
	"fatpecs/storage"
)

// magic values and version, spec §4.11.
const (
	headerMagic uint32 = 0x46415053 // "FAPS"
	footerMagic uint32 = 0x00444E45 // "END\0"
	version     byte   = 1
)

var byteOrder = binary.LittleEndian

// ComponentCodec encodes/decodes one component type's value to/from a
// length-prefixed blob. Registered per TypeID by the caller, in the order
// those types should appear in the snapshot — spec §4.11 requires
// "component blocks keyed by TypeID in caller-supplied order", since
// TypeID assignment itself is process-local and unstable across runs.
type ComponentCodec[T any] struct {
	typeID storage.TypeID
	encode func(w io.Writer, v *T) error
	decode func(r io.Reader) (T, error)
}

// NewComponentCodec builds a codec for T using the given encode/decode
// functions, tagged with T's process-local TypeID.
func NewComponentCodec[T any](encode func(io.Writer, *T) error, decode func(io.Reader) (T, error)) ComponentCodec[T] {
	return ComponentCodec[T]{typeID: storage.TypeIDFor[T](), encode: encode, decode: decode}
}

// blockWriter is the type-erased half of a ComponentCodec used while
// writing a snapshot: it knows how to dump every component of its type
// that the registry currently holds.
type blockWriter interface {
	typeID() storage.TypeID
	writeBlock(w io.Writer, r *fatpecs.Registry) error
}

// blockReader is the type-erased half used while loading: it knows how
// to read one already-length-delimited blob and install it into the
// registry for a given entity.
type blockReader interface {
	typeID() storage.TypeID
	readValue(r io.Reader) (applyFn func(reg *fatpecs.Registry, e storage.Entity) error, err error)
}

type codecAdapter[T any] struct{ c ComponentCodec[T] }

func (a codecAdapter[T]) typeID() storage.TypeID { return a.c.typeID }

func (a codecAdapter[T]) writeBlock(w io.Writer, r *fatpecs.Registry) error {
	cs := storage.GetStore[T](registryStores(r))
	if cs == nil {
		return writeBlockHeader(w, a.c.typeID, 0)
	}
	var buf bytes.Buffer
	entities := cs.DenseEntities()
	data := cs.DenseData()
	for i, e := range entities {
		if err := binary.Write(&buf, byteOrder, uint64(e)); err != nil {
			return err
		}
		var valueBuf bytes.Buffer
		if err := a.c.encode(&valueBuf, &data[i]); err != nil {
			return err
		}
		if err := binary.Write(&buf, byteOrder, uint32(valueBuf.Len())); err != nil {
			return err
		}
		buf.Write(valueBuf.Bytes())
	}
	if err := writeBlockHeader(w, a.c.typeID, uint32(len(entities))); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (a codecAdapter[T]) readValue(r io.Reader) (func(*fatpecs.Registry, storage.Entity) error, error) {
	var blobLen uint32
	if err := binary.Read(r, byteOrder, &blobLen); err != nil {
		return nil, err
	}
	lr := io.LimitReader(r, int64(blobLen))
	v, err := a.c.decode(lr)
	if err != nil {
		return nil, err
	}
	return func(reg *fatpecs.Registry, e storage.Entity) error {
		return fatpecs.EmplaceOrReplace[T](reg, e, v)
	}, nil
}

// fullCodec is the type-erased shape AsCodec produces: both halves a
// Writer and a Loader need, bundled so one registration call can feed
// either.
type fullCodec interface {
	blockWriter
	blockReader
}

// AsCodec wraps c in the type-erased form Register stores; the result can
// both write and read blocks of T.
func AsCodec[T any](c ComponentCodec[T]) fullCodec {
	return codecAdapter[T]{c: c}
}

func writeBlockHeader(w io.Writer, id storage.TypeID, count uint32) error {
	if err := binary.Write(w, byteOrder, uint32(id)); err != nil {
		return err
	}
	return binary.Write(w, byteOrder, count)
}

// Writer serializes a Registry to the wire format described in spec
// §4.11: header magic, version, entity table, component blocks in
// registration order, footer magic.
type Writer struct {
	codecs []fullCodec
}

// NewWriter builds an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Register adds c to the set of component types this Writer will dump,
// in call order — that order becomes the snapshot's on-disk block order.
func Register[T any](w *Writer, c ComponentCodec[T]) {
	w.codecs = append(w.codecs, AsCodec(c))
}

// Write serializes r's full contents to out.
func (w *Writer) Write(out io.Writer, r *fatpecs.Registry) error {
	if err := binary.Write(out, byteOrder, headerMagic); err != nil {
		return err
	}
	if _, err := out.Write([]byte{version}); err != nil {
		return err
	}

	entities := make([]storage.Entity, 0, r.EntityCount())
	r.Entities(func(e storage.Entity) { entities = append(entities, e) })
	if err := binary.Write(out, byteOrder, uint32(len(entities))); err != nil {
		return err
	}
	for _, e := range entities {
		if err := binary.Write(out, byteOrder, uint64(e)); err != nil {
			return err
		}
	}

	for _, c := range w.codecs {
		if err := c.writeBlock(out, r); err != nil {
			return fmt.Errorf("snapshot: writing block for type %d: %w", c.typeID(), err)
		}
	}

	return binary.Write(out, byteOrder, footerMagic)
}

// Loader deserializes the wire format Writer produces back into a fresh
// Registry. Components whose TypeID was not registered on this Loader are
// skipped (their blocks are read and discarded) rather than erroring, so
// a snapshot saved with a superset of the reader's known types still
// loads the types it does know (spec §4.11's forward-compat note).
type Loader struct {
	byTypeID map[storage.TypeID]blockReader
}

// NewLoader builds an empty Loader.
func NewLoader() *Loader { return &Loader{byTypeID: make(map[storage.TypeID]blockReader)} }

// RegisterLoader adds c to the set of component types this Loader knows
// how to decode.
func RegisterLoader[T any](l *Loader, c ComponentCodec[T]) {
	a := codecAdapter[T]{c: c}
	l.byTypeID[c.typeID] = a
}

// Load reads the wire format from in and applies it to r, which should be
// empty (or at least have no conflicting entity indices — Load does not
// clear r first).
func (l *Loader) Load(in io.Reader, r *fatpecs.Registry) error {
	var magic uint32
	if err := binary.Read(in, byteOrder, &magic); err != nil {
		return err
	}
	if magic != headerMagic {
		return storage.ErrBadMagic
	}

	var ver [1]byte
	if _, err := io.ReadFull(in, ver[:]); err != nil {
		return err
	}
	if ver[0] != version {
		return storage.ErrBadVersion
	}

	var entityCount uint32
	if err := binary.Read(in, byteOrder, &entityCount); err != nil {
		return storage.ErrTruncated
	}
	savedToLive := make(map[storage.Entity]storage.Entity, entityCount)
	for i := uint32(0); i < entityCount; i++ {
		var raw uint64
		if err := binary.Read(in, byteOrder, &raw); err != nil {
			return storage.ErrTruncated
		}
		live, err := r.Create()
		if err != nil {
			return err
		}
		savedToLive[storage.Entity(raw)] = live
	}

	// The block section carries no overall block-count prefix (each block
	// only counts its own entries): the stream is read block by block until the footer magic turns up where
	// a block's leading TypeID would otherwise be. TypeIDs are assigned
	// starting at 0 and counting up, so they never collide with
	// footerMagic.
	for {
		var marker uint32
		if err := binary.Read(in, byteOrder, &marker); err != nil {
			return storage.ErrTruncated
		}
		if marker == footerMagic {
			return nil
		}
		typeID := marker

		var count uint32
		if err := binary.Read(in, byteOrder, &count); err != nil {
			if errors.Is(err, io.EOF) {
				// Nothing at all followed this marker: it was meant to be
				// the footer and wasn't, rather than a block cut short.
				return storage.ErrBadFooter
			}
			return storage.ErrTruncated
		}
		reader, known := l.byTypeID[storage.TypeID(typeID)]
		for j := uint32(0); j < count; j++ {
			var rawEntity uint64
			if err := binary.Read(in, byteOrder, &rawEntity); err != nil {
				return storage.ErrTruncated
			}
			if !known {
				if err := skipValue(in); err != nil {
					return storage.ErrTruncated
				}
				continue
			}
			apply, err := reader.readValue(in)
			if err != nil {
				return fmt.Errorf("snapshot: decoding block for type %d: %w", typeID, err)
			}
			live, ok := savedToLive[storage.Entity(rawEntity)]
			if !ok {
				continue
			}
			if err := apply(r, live); err != nil {
				return err
			}
		}
	}
}

func skipValue(r io.Reader) error {
	var blobLen uint32
	if err := binary.Read(r, byteOrder, &blobLen); err != nil {
		return err
	}
	_, err := io.CopyN(io.Discard, r, int64(blobLen))
	return err
}

// registryStores reaches into r for its StoreRegistry. Writer needs
// typed store access (storage.GetStore[T]) to dump dense arrays directly
// rather than going through the registry's per-entity Get, so this
// package-private accessor is exposed by fatpecs specifically for
// snapshot's use.
func registryStores(r *fatpecs.Registry) *storage.StoreRegistry {
	return fatpecs.StoresOf(r)
}
