package interop

import "github.com/pkg/errors"

// Accessor describes typed elements inside a buffer view.
// Ids inside a mesh are local to that mesh.
type Accessor struct {
	Type          AccessorDataType
	ComponentType ComponentType
	Count         uint64
	BufferView    ResourceID
	ByteOffset    uint64
}

func (a *Accessor) ElementSize() uint64 {
	return uint64(a.Type.Components() * a.ComponentType.Size())
}

type BufferView struct {
	Buffer     ResourceID
	ByteOffset uint64
	ByteLength uint64
	ByteStride uint64
}

type GeometryBuffer struct {
	Data []byte
}

type Attribute struct {
	Semantic AttributeSemantic
	Accessor ResourceID
}

type PrimitiveArray struct {
	Attributes      []Attribute
	IndicesAccessor ResourceID
	Material        ResourceID
	Mode            PrimitiveMode
}

// Mesh keeps parallel id/value slices, the same shape the store receives
type Mesh struct {
	Name string
	Path string

	PrimitiveArrays []PrimitiveArray

	AccessorIDs []ResourceID
	Accessors   []Accessor

	BufferViewIDs []ResourceID
	BufferViews   []BufferView

	BufferIDs []ResourceID
	Buffers   []GeometryBuffer

	InverseBindMatricesAccessor ResourceID
}

func (m *Mesh) Accessor(id ResourceID) (*Accessor, bool) {
	for i, aid := range m.AccessorIDs {
		if aid == id {
			return &m.Accessors[i], true
		}
	}
	return nil, false
}

func (m *Mesh) BufferView(id ResourceID) (*BufferView, bool) {
	for i, vid := range m.BufferViewIDs {
		if vid == id {
			return &m.BufferViews[i], true
		}
	}
	return nil, false
}

func (m *Mesh) Buffer(id ResourceID) (*GeometryBuffer, bool) {
	for i, bid := range m.BufferIDs {
		if bid == id {
			return &m.Buffers[i], true
		}
	}
	return nil, false
}

func (m *Mesh) AddAccessor(id ResourceID, a Accessor) {
	m.AccessorIDs = append(m.AccessorIDs, id)
	m.Accessors = append(m.Accessors, a)
}

func (m *Mesh) AddBufferView(id ResourceID, v BufferView) {
	m.BufferViewIDs = append(m.BufferViewIDs, id)
	m.BufferViews = append(m.BufferViews, v)
}

func (m *Mesh) AddBuffer(id ResourceID, data []byte) {
	m.BufferIDs = append(m.BufferIDs, id)
	m.Buffers = append(m.Buffers, GeometryBuffer{Data: data})
}

// AccessorData returns the raw bytes of every element of an accessor,
// following the view stride
func (m *Mesh) AccessorData(id ResourceID) ([][]byte, error) {
	a, ok := m.Accessor(id)
	if !ok {
		return nil, errors.Errorf("Accessor %d not found", id)
	}
	v, ok := m.BufferView(a.BufferView)
	if !ok {
		return nil, errors.Errorf("Accessor %d: buffer view %d not found", id, a.BufferView)
	}
	b, ok := m.Buffer(v.Buffer)
	if !ok {
		return nil, errors.Errorf("Buffer view %d: buffer %d not found", a.BufferView, v.Buffer)
	}
	stride := v.ByteStride
	if stride == 0 {
		stride = a.ElementSize()
	}
	elemSize := a.ElementSize()
	result := make([][]byte, a.Count)
	for i := uint64(0); i < a.Count; i++ {
		start := v.ByteOffset + a.ByteOffset + i*stride
		if start+elemSize > uint64(len(b.Data)) || start+elemSize > v.ByteOffset+v.ByteLength {
			return nil, errors.Errorf("Accessor %d element %d out of view range", id, i)
		}
		result[i] = b.Data[start : start+elemSize]
	}
	return result, nil
}

// Validate checks referential integrity: accessor -> view -> buffer,
// attribute -> accessor, and that every accessor fits its view
func (m *Mesh) Validate() error {
	if len(m.AccessorIDs) != len(m.Accessors) ||
		len(m.BufferViewIDs) != len(m.BufferViews) ||
		len(m.BufferIDs) != len(m.Buffers) {
		return errors.Errorf("Mesh %q: id and value counts differ", m.Name)
	}

	seen := make(map[ResourceID]bool)
	for _, ids := range [][]ResourceID{m.AccessorIDs, m.BufferViewIDs, m.BufferIDs} {
		for _, id := range ids {
			if id == 0 {
				return errors.Errorf("Mesh %q: zero local id", m.Name)
			}
			if seen[id] {
				return errors.Errorf("Mesh %q: local id %d used twice", m.Name, id)
			}
			seen[id] = true
		}
	}

	for i, v := range m.BufferViews {
		b, ok := m.Buffer(v.Buffer)
		if !ok {
			return errors.Errorf("Mesh %q: view %d references missing buffer %d", m.Name, m.BufferViewIDs[i], v.Buffer)
		}
		if v.ByteOffset+v.ByteLength > uint64(len(b.Data)) {
			return errors.Errorf("Mesh %q: view %d exceeds buffer %d", m.Name, m.BufferViewIDs[i], v.Buffer)
		}
	}

	for i := range m.Accessors {
		a := &m.Accessors[i]
		v, ok := m.BufferView(a.BufferView)
		if !ok {
			return errors.Errorf("Mesh %q: accessor %d references missing view %d", m.Name, m.AccessorIDs[i], a.BufferView)
		}
		if a.Count == 0 {
			continue
		}
		stride := v.ByteStride
		if stride == 0 {
			stride = a.ElementSize()
		}
		if end := a.ByteOffset + (a.Count-1)*stride + a.ElementSize(); end > v.ByteLength {
			return errors.Errorf("Mesh %q: accessor %d needs %d bytes, view %d has %d",
				m.Name, m.AccessorIDs[i], end, a.BufferView, v.ByteLength)
		}
	}

	for iPrim, prim := range m.PrimitiveArrays {
		for _, attr := range prim.Attributes {
			if _, ok := m.Accessor(attr.Accessor); !ok {
				return errors.Errorf("Mesh %q: primitive %d attribute %v references missing accessor %d",
					m.Name, iPrim, attr.Semantic, attr.Accessor)
			}
		}
		if _, ok := m.Accessor(prim.IndicesAccessor); !ok {
			return errors.Errorf("Mesh %q: primitive %d references missing index accessor %d",
				m.Name, iPrim, prim.IndicesAccessor)
		}
	}

	if m.InverseBindMatricesAccessor != 0 {
		if _, ok := m.Accessor(m.InverseBindMatricesAccessor); !ok {
			return errors.Errorf("Mesh %q: missing inverse bind matrices accessor %d", m.Name, m.InverseBindMatricesAccessor)
		}
	}
	return nil
}
