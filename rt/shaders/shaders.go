package shaders

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed fullscreen_quad.wgsl
var FullscreenQuadWGSL string

// RaytraceQuadWGSL expects the scene and frame block declarations to be
// prepended (see gpu.Layout.WGSLDeclarations).
//
//go:embed raytrace_quad.wgsl
var RaytraceQuadWGSL string

//go:embed text.wgsl
var TextWGSL string

const (
	VertexFile   = "fullscreen_quad.wgsl"
	FragmentFile = "raytrace_quad.wgsl"
)

// Sources are the raw vertex and fragment shader sources.
type Sources struct {
	Vertex   string
	Fragment string
}

// Loader fetches shader sources. Loading is the only step of renderer start
// up allowed to block.
type Loader interface {
	Load(ctx context.Context) (Sources, error)
}

type LoaderFunc func(ctx context.Context) (Sources, error)

func (f LoaderFunc) Load(ctx context.Context) (Sources, error) {
	return f(ctx)
}

// Embedded serves the sources compiled into the binary.
type Embedded struct{}

func (Embedded) Load(ctx context.Context) (Sources, error) {
	return Sources{Vertex: FullscreenQuadWGSL, Fragment: RaytraceQuadWGSL}, ctx.Err()
}

// Dir reads the sources from a directory on every Load, so shaders can be
// edited without rebuilding.
type Dir struct {
	Path string
}

func (d Dir) Load(ctx context.Context) (Sources, error) {
	var src Sources
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{VertexFile, &src.Vertex},
		{FragmentFile, &src.Fragment},
	} {
		if err := ctx.Err(); err != nil {
			return Sources{}, err
		}
		data, err := os.ReadFile(filepath.Join(d.Path, f.name))
		if err != nil {
			return Sources{}, fmt.Errorf("read shader: %w", err)
		}
		*f.dst = string(data)
	}
	return src, nil
}
