package snapshot

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fatpecs"
	"fatpecs/storage"
)

type position struct{ X, Y float64 }

func encodePosition(w io.Writer, v *position) error {
	return binary.Write(w, binary.LittleEndian, *v)
}

func decodePosition(r io.Reader) (position, error) {
	var v position
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func buildWriter() *Writer {
	w := NewWriter()
	Register(w, NewComponentCodec(encodePosition, decodePosition))
	return w
}

func buildLoader() *Loader {
	l := NewLoader()
	RegisterLoader(l, NewComponentCodec(encodePosition, decodePosition))
	return l
}

func TestRoundTrip(t *testing.T) {
	r := fatpecs.New(fatpecs.DefaultConfig(), nil)
	e1, _ := r.Create()
	e2, _ := r.Create()
	require.NoError(t, fatpecs.Add(r, e1, position{X: 1, Y: 2}))
	require.NoError(t, fatpecs.Add(r, e2, position{X: 3, Y: 4}))

	var buf bytes.Buffer
	require.NoError(t, buildWriter().Write(&buf, r))

	restored := fatpecs.New(fatpecs.DefaultConfig(), nil)
	require.NoError(t, buildLoader().Load(&buf, restored))

	assert.Equal(t, 2, restored.EntityCount())

	var positions []position
	fatpecs.NewView1[position](restored).Each(func(_ storage.Entity, p *position) {
		positions = append(positions, *p)
	})
	assert.ElementsMatch(t, []position{{X: 1, Y: 2}, {X: 3, Y: 4}}, positions)
}

func TestHeaderMagicChecked(t *testing.T) {
	r := fatpecs.New(fatpecs.DefaultConfig(), nil)
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 0})

	err := buildLoader().Load(&buf, r)
	require.ErrorIs(t, err, storage.ErrBadMagic)
}

func TestVersionChecked(t *testing.T) {
	r := fatpecs.New(fatpecs.DefaultConfig(), nil)

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, headerMagic))
	buf.WriteByte(0xFF)

	err := buildLoader().Load(&buf, r)
	require.ErrorIs(t, err, storage.ErrBadVersion)
}

func TestFooterMagicChecked(t *testing.T) {
	original := fatpecs.New(fatpecs.DefaultConfig(), nil)
	e, _ := original.Create()
	require.NoError(t, fatpecs.Add(original, e, position{X: 1}))

	var buf bytes.Buffer
	require.NoError(t, buildWriter().Write(&buf, original))

	corrupted := buf.Bytes()[:buf.Len()-4]
	corrupted = append(corrupted, 0, 0, 0, 0)

	restored := fatpecs.New(fatpecs.DefaultConfig(), nil)
	err := buildLoader().Load(bytes.NewReader(corrupted), restored)
	require.ErrorIs(t, err, storage.ErrBadFooter)
}

func TestUnknownComponentTypeSkipped(t *testing.T) {
	r := fatpecs.New(fatpecs.DefaultConfig(), nil)
	e, _ := r.Create()
	require.NoError(t, fatpecs.Add(r, e, position{X: 9, Y: 9}))

	var buf bytes.Buffer
	require.NoError(t, buildWriter().Write(&buf, r))

	restored := fatpecs.New(fatpecs.DefaultConfig(), nil)
	emptyLoader := NewLoader() // no component types registered
	require.NoError(t, emptyLoader.Load(&buf, restored))
	assert.Equal(t, 1, restored.EntityCount())
}
