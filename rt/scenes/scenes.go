// Package scenes builds the demo scenes the renderer can start with.
package scenes

import (
	"fmt"
	"sort"

	"github.com/gekko3d/quadrt/rt/core"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

var builders = map[string]func() (*core.Scene, error){
	"default": Default,
	"grid":    func() (*core.Scene, error) { return Grid(4) },
	"empty":   func() (*core.Scene, error) { return core.NewScene(), nil },
}

// Names lists the scenes ByName accepts.
func Names() []string {
	names := make([]string, 0, len(builders))
	for n := range builders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func ByName(name string) (*core.Scene, error) {
	build, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q (available: %v)", name, Names())
	}
	return build()
}

// Default is a striped floor with three spheres and two lights.
func Default() (*core.Scene, error) {
	s := core.NewScene()

	floor := core.NewMaterial("floor", mgl32.Vec3{0.9, 0.9, 0.85})
	floor.Reflectivity = 0.1
	red := core.NewMaterial("red", mgl32.Vec3{0.8, 0.1, 0.1})
	mirror := core.NewMaterial("mirror", mgl32.Vec3{0.2, 0.2, 0.2})
	mirror.Reflectivity = 0.8
	glass := core.NewMaterial("glass", mgl32.Vec3{0.1, 0.3, 0.8})
	glass.Transparency = 0.9
	glass.RefractiveIndex = 1.5

	floorIdx := s.AddMaterial(floor)
	redIdx := s.AddMaterial(red)
	mirrorIdx := s.AddMaterial(mirror)
	glassIdx := s.AddMaterial(glass)

	prims := []core.Primitive{
		core.NewPlaneXZ(0, floorIdx).WithPattern(core.PatternStripeDots, mgl32.Vec4{1, 0.6, 0, 0}),
		core.NewSphere(mgl32.Vec3{0, 1, 0}, 1, redIdx),
		core.NewSphere(mgl32.Vec3{-2.5, 0.75, 1}, 0.75, mirrorIdx),
		core.NewSphere(mgl32.Vec3{2, 0.5, 1.5}, 0.5, glassIdx),
	}
	for _, p := range prims {
		if _, err := s.AddPrimitive(p); err != nil {
			return nil, err
		}
	}

	s.AddLight(core.NewPointLight(mgl32.Vec3{-4, 6, 4}, mgl32.Vec3{0.8, 0.8, 0.8}).WithShadows())
	s.AddLight(core.NewPointLight(mgl32.Vec3{5, 4, -2}, mgl32.Vec3{0.3, 0.3, 0.4}))
	return s, nil
}

// Grid places n x n spheres on a floor, cycling through a small palette.
// Large n overflows the default layout on purpose.
func Grid(n int) (*core.Scene, error) {
	if n < 0 {
		return nil, fmt.Errorf("grid size %d is negative", n)
	}
	s := core.NewScene()

	floorIdx := s.AddMaterial(core.NewMaterial("floor", mgl32.Vec3{0.7, 0.7, 0.7}))
	const palette = 5
	first := len(s.Materials())
	for i := 0; i < palette; i++ {
		hue := float32(i) / palette * 2 * math32.Pi
		c := mgl32.Vec3{
			0.5 + 0.5*math32.Cos(hue),
			0.5 + 0.5*math32.Cos(hue-2*math32.Pi/3),
			0.5 + 0.5*math32.Cos(hue+2*math32.Pi/3),
		}
		m := core.NewMaterial(fmt.Sprintf("grid-%d", i), c)
		m.Reflectivity = 0.2
		s.AddMaterial(m)
	}

	if _, err := s.AddPrimitive(core.NewPlaneXZ(0, floorIdx)); err != nil {
		return nil, err
	}

	const spacing = 1.5
	offset := float32(n-1) * spacing / 2
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			center := mgl32.Vec3{float32(i)*spacing - offset, 0.5, float32(j)*spacing - offset}
			mat := first + (i*n+j)%palette
			if _, err := s.AddPrimitive(core.NewSphere(center, 0.5, mat)); err != nil {
				return nil, err
			}
		}
	}

	s.AddLight(core.NewPointLight(mgl32.Vec3{0, 8, 6}, mgl32.Vec3{1, 1, 1}).WithShadows())
	return s, nil
}
