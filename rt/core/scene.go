package core

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Counts holds the number of records of each kind.
type Counts struct {
	Lights     int
	Materials  int
	Primitives int
}

// Scene owns the ordered primitive, material and light lists. Insertion order
// is significant: it defines material indices and GPU slot order.
//
// A Scene is not safe for concurrent use. Mutate it between frames only.
type Scene struct {
	primitives []Primitive
	materials  []Material
	lights     []Light
	version    uint64
}

func NewScene() *Scene {
	return &Scene{
		primitives: []Primitive{},
		materials:  []Material{},
		lights:     []Light{},
	}
}

// Version increases on every mutation.
func (s *Scene) Version() uint64 {
	return s.version
}

func (s *Scene) touch() {
	s.version++
}

// AddPrimitive appends p and returns its handle. A primitive without an ID
// gets a fresh one. Transforms the shader cannot invert are rejected.
func (s *Scene) AddPrimitive(p Primitive) (uuid.UUID, error) {
	if err := p.Validate(); err != nil {
		return uuid.Nil, err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.primitives = append(s.primitives, p)
	s.touch()
	return p.ID, nil
}

// AddMaterial appends m and returns its index.
func (s *Scene) AddMaterial(m Material) int {
	s.materials = append(s.materials, m)
	s.touch()
	return len(s.materials) - 1
}

func (s *Scene) AddLight(l Light) uuid.UUID {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	s.lights = append(s.lights, l)
	s.touch()
	return l.ID
}

// SetMaterial replaces the material at index i.
func (s *Scene) SetMaterial(i int, m Material) error {
	if i < 0 || i >= len(s.materials) {
		return fmt.Errorf("material index %d out of range [0,%d)", i, len(s.materials))
	}
	s.materials[i] = m
	s.touch()
	return nil
}

func (s *Scene) primitiveIndex(id uuid.UUID) int {
	for i := range s.primitives {
		if s.primitives[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Scene) lightIndex(id uuid.UUID) int {
	for i := range s.lights {
		if s.lights[i].ID == id {
			return i
		}
	}
	return -1
}

// Primitive returns a copy of the primitive with the given handle.
func (s *Scene) Primitive(id uuid.UUID) (Primitive, bool) {
	i := s.primitiveIndex(id)
	if i < 0 {
		return Primitive{}, false
	}
	return s.primitives[i], true
}

// UpdatePrimitive applies fn to the primitive in place. The edit is discarded
// if it leaves the transform invalid. The ID cannot be changed.
func (s *Scene) UpdatePrimitive(id uuid.UUID, fn func(p *Primitive)) error {
	i := s.primitiveIndex(id)
	if i < 0 {
		return fmt.Errorf("primitive %s not found", id)
	}
	p := s.primitives[i]
	fn(&p)
	p.ID = id
	if err := p.Validate(); err != nil {
		return fmt.Errorf("primitive %s: %w", id, err)
	}
	s.primitives[i] = p
	s.touch()
	return nil
}

func (s *Scene) UpdateLight(id uuid.UUID, fn func(l *Light)) error {
	i := s.lightIndex(id)
	if i < 0 {
		return fmt.Errorf("light %s not found", id)
	}
	fn(&s.lights[i])
	s.lights[i].ID = id
	s.touch()
	return nil
}

func (s *Scene) RemovePrimitive(id uuid.UUID) bool {
	i := s.primitiveIndex(id)
	if i < 0 {
		return false
	}
	s.primitives = slices.Delete(s.primitives, i, i+1)
	s.touch()
	return true
}

func (s *Scene) RemoveLight(id uuid.UUID) bool {
	i := s.lightIndex(id)
	if i < 0 {
		return false
	}
	s.lights = slices.Delete(s.lights, i, i+1)
	s.touch()
	return true
}

// Primitives returns the primitive list in insertion order. The slice is
// owned by the scene and must not be modified.
func (s *Scene) Primitives() []Primitive { return s.primitives }

// Materials returns the material list; index i is material index i.
func (s *Scene) Materials() []Material { return s.materials }

func (s *Scene) Lights() []Light { return s.lights }

func (s *Scene) Counts() Counts {
	return Counts{
		Lights:     len(s.lights),
		Materials:  len(s.materials),
		Primitives: len(s.primitives),
	}
}

// Clear removes all records but keeps the version monotonic.
func (s *Scene) Clear() {
	s.primitives = slices.Delete(s.primitives, 0, len(s.primitives))
	s.materials = slices.Delete(s.materials, 0, len(s.materials))
	s.lights = slices.Delete(s.lights, 0, len(s.lights))
	s.touch()
}
