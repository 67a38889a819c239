package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSceneInsertionOrder(t *testing.T) {
	scene := NewScene()

	red := scene.AddMaterial(NewMaterial("red", mgl32.Vec3{1, 0, 0}))
	green := scene.AddMaterial(NewMaterial("green", mgl32.Vec3{0, 1, 0}))
	assert.Equal(t, 0, red)
	assert.Equal(t, 1, green)

	first, err := scene.AddPrimitive(NewSphere(mgl32.Vec3{0, 1, 0}, 1, green))
	require.NoError(t, err)
	second, err := scene.AddPrimitive(NewPlaneXZ(0, red))
	require.NoError(t, err)

	prims := scene.Primitives()
	require.Len(t, prims, 2)
	assert.Equal(t, first, prims[0].ID)
	assert.Equal(t, second, prims[1].ID)
	assert.Equal(t, PrimitiveSphere, prims[0].Kind)
	assert.Equal(t, PrimitivePlaneXZ, prims[1].Kind)

	assert.Equal(t, Counts{Lights: 0, Materials: 2, Primitives: 2}, scene.Counts())
}

func TestSceneAssignsIDs(t *testing.T) {
	scene := NewScene()

	a := scene.AddLight(NewPointLight(mgl32.Vec3{0, 5, 0}, mgl32.Vec3{1, 1, 1}))
	b := scene.AddLight(NewPointLight(mgl32.Vec3{5, 5, 0}, mgl32.Vec3{1, 1, 1}))
	assert.NotEqual(t, uuid.Nil, a)
	assert.NotEqual(t, a, b)

	// A caller supplied ID is kept
	fixed := uuid.New()
	l := NewPointLight(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})
	l.ID = fixed
	assert.Equal(t, fixed, scene.AddLight(l))
}

func TestSceneRejectsSingularTransform(t *testing.T) {
	scene := NewScene()

	flat := NewSphere(mgl32.Vec3{}, 1, 0)
	flat.Transform = mgl32.Scale3D(1, 0, 1)
	_, err := scene.AddPrimitive(flat)
	assert.ErrorIs(t, err, ErrSingularTransform)

	projective := NewSphere(mgl32.Vec3{}, 1, 0)
	projective.Transform = mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 10)
	_, err = scene.AddPrimitive(projective)
	assert.ErrorIs(t, err, ErrNotAffine)

	assert.Empty(t, scene.Primitives())
	assert.Zero(t, scene.Version())
}

func TestSceneRejectsNonFiniteTransform(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	for _, v := range []float32{nan, inf} {
		p := NewSphere(mgl32.Vec3{}, 1, 0)
		p.Transform[0] = v
		assert.ErrorIs(t, p.Validate(), ErrSingularTransform, "scale %v", v)
	}
}

func TestSceneRemoveClearsStaleRecords(t *testing.T) {
	scene := NewScene()
	a, err := scene.AddPrimitive(NewSphere(mgl32.Vec3{}, 1, 0))
	require.NoError(t, err)
	b, err := scene.AddPrimitive(NewSphere(mgl32.Vec3{2, 0, 0}, 1, 0))
	require.NoError(t, err)
	light := scene.AddLight(NewPointLight(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}))

	prims := scene.Primitives()
	lights := scene.Lights()

	require.True(t, scene.RemovePrimitive(a))
	assert.Equal(t, b, prims[0].ID)
	assert.Equal(t, uuid.Nil, prims[1].ID)

	require.True(t, scene.RemoveLight(light))
	assert.Equal(t, uuid.Nil, lights[0].ID)

	scene.Clear()
	assert.Equal(t, uuid.Nil, prims[0].ID)
	assert.Zero(t, scene.Counts().Primitives)
}

func TestSceneAcceptsDanglingMaterialIndex(t *testing.T) {
	scene := NewScene()
	scene.AddMaterial(DefaultMaterial())

	_, err := scene.AddPrimitive(NewSphere(mgl32.Vec3{}, 1, 5))
	assert.NoError(t, err)
}

func TestSceneUpdateAndRemove(t *testing.T) {
	scene := NewScene()
	id, err := scene.AddPrimitive(NewSphere(mgl32.Vec3{}, 1, 0))
	require.NoError(t, err)

	require.NoError(t, scene.UpdatePrimitive(id, func(p *Primitive) {
		p.MaterialIndex = 3
		p.Transform = mgl32.Translate3D(1, 2, 3)
		p.ID = uuid.New() // ignored
	}))
	p, ok := scene.Primitive(id)
	require.True(t, ok)
	assert.Equal(t, 3, p.MaterialIndex)
	assert.Equal(t, float32(2), p.Transform.At(1, 3))

	// Invalid edit leaves the primitive untouched
	err = scene.UpdatePrimitive(id, func(p *Primitive) { p.Transform = mgl32.Scale3D(0, 0, 0) })
	assert.ErrorIs(t, err, ErrSingularTransform)
	p, _ = scene.Primitive(id)
	assert.Equal(t, 3, p.MaterialIndex)

	assert.Error(t, scene.UpdatePrimitive(uuid.New(), func(p *Primitive) {}))

	assert.True(t, scene.RemovePrimitive(id))
	assert.False(t, scene.RemovePrimitive(id))
	assert.Empty(t, scene.Primitives())
}

func TestSceneLights(t *testing.T) {
	scene := NewScene()
	id := scene.AddLight(NewPointLight(mgl32.Vec3{0, 5, 0}, mgl32.Vec3{1, 1, 1}))

	require.NoError(t, scene.UpdateLight(id, func(l *Light) { l.CastsShadows = true }))
	assert.True(t, scene.Lights()[0].CastsShadows)
	assert.False(t, scene.Lights()[0].Directional())

	assert.True(t, scene.RemoveLight(id))
	assert.Empty(t, scene.Lights())
}

func TestSceneSetMaterial(t *testing.T) {
	scene := NewScene()
	scene.AddMaterial(DefaultMaterial())

	shiny := DefaultMaterial()
	shiny.Reflectivity = 0.5
	require.NoError(t, scene.SetMaterial(0, shiny))
	assert.Equal(t, float32(0.5), scene.Materials()[0].Reflectivity)

	assert.Error(t, scene.SetMaterial(1, shiny))
	assert.Error(t, scene.SetMaterial(-1, shiny))
}

func TestSceneVersion(t *testing.T) {
	scene := NewScene()
	v0 := scene.Version()

	scene.AddMaterial(DefaultMaterial())
	v1 := scene.Version()
	assert.Greater(t, v1, v0)

	id, _ := scene.AddPrimitive(NewSphere(mgl32.Vec3{}, 1, 0))
	v2 := scene.Version()
	assert.Greater(t, v2, v1)

	_, _ = scene.Primitive(id)
	assert.Equal(t, v2, scene.Version(), "reads must not bump the version")

	scene.Clear()
	assert.Greater(t, scene.Version(), v2)
	assert.Equal(t, Counts{}, scene.Counts())
}

func TestMaterialValidate(t *testing.T) {
	assert.NoError(t, DefaultMaterial().Validate())

	tests := []struct {
		name   string
		mutate func(m *Material)
	}{
		{"zero shininess", func(m *Material) { m.Specular[3] = 0 }},
		{"reflectivity above one", func(m *Material) { m.Reflectivity = 1.5 }},
		{"negative transparency", func(m *Material) { m.Transparency = -0.1 }},
		{"zero refractive index", func(m *Material) { m.RefractiveIndex = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := DefaultMaterial()
			tc.mutate(&m)
			assert.Error(t, m.Validate())
		})
	}
}

func TestTransformComposition(t *testing.T) {
	tr := NewTransform()
	tr.Position = mgl32.Vec3{10, 20, 30}
	tr.Scale = mgl32.Vec3{2, 2, 2}

	identity := tr.ObjectToWorld().Mul4(tr.WorldToObject())

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := float32(0)
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, identity.At(i, j), 1e-4, "element [%d,%d]", i, j)
		}
	}
}

func TestNewSphereTransform(t *testing.T) {
	s := NewSphere(mgl32.Vec3{1, 2, 3}, 0.5, 7)

	assert.Equal(t, PrimitiveSphere, s.Kind)
	assert.Equal(t, 7, s.MaterialIndex)
	assert.Equal(t, float32(0.5), s.Transform.At(0, 0))
	assert.Equal(t, float32(1), s.Transform.At(0, 3))
	assert.Equal(t, float32(2), s.Transform.At(1, 3))
	assert.Equal(t, float32(3), s.Transform.At(2, 3))
	assert.NoError(t, s.Validate())
}

func TestPrimitiveKindKnown(t *testing.T) {
	assert.False(t, PrimitiveNone.Known())
	assert.True(t, PrimitiveSphere.Known())
	assert.True(t, PrimitivePlaneXZ.Known())
	assert.False(t, PrimitiveKind(99).Known())
	assert.Equal(t, "sphere", PrimitiveSphere.String())
}
