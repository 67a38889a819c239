package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraState is an orbiting look-at camera. The eye rotates about the
// vertical (Y) axis through Target by OrbitAngle radians.
type CameraState struct {
	BaseEye    mgl32.Vec3
	Target     mgl32.Vec3
	Up         mgl32.Vec3
	FovY       float32 // radians
	OrbitSpeed float32 // radians per second
	OrbitAngle float32
	Paused     bool
}

func NewCameraState() *CameraState {
	return &CameraState{
		BaseEye:    mgl32.Vec3{0, 2, 8},
		Target:     mgl32.Vec3{0, 1, 0},
		Up:         mgl32.Vec3{0, 1, 0},
		FovY:       mgl32.DegToRad(60),
		OrbitSpeed: 0.25,
	}
}

// Advance moves the orbit forward by dt seconds unless paused.
func (c *CameraState) Advance(dt float32) {
	if c.Paused {
		return
	}
	c.Step(c.OrbitSpeed * dt)
}

// Step rotates the orbit by a fixed angle, ignoring Paused.
func (c *CameraState) Step(angle float32) {
	c.OrbitAngle = math32.Mod(c.OrbitAngle+angle, 2*math32.Pi)
	if c.OrbitAngle < 0 {
		c.OrbitAngle += 2 * math32.Pi
	}
}

func (c *CameraState) Eye() mgl32.Vec3 {
	offset := c.BaseEye.Sub(c.Target)
	rot := mgl32.HomogRotate3DY(c.OrbitAngle)
	return c.Target.Add(rot.Mul4x1(offset.Vec4(0)).Vec3())
}

func (c *CameraState) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye(), c.Target, c.Up)
}

// CameraToWorld is the inverse view matrix. The shader uses it to turn
// camera-space ray directions into world space.
func (c *CameraState) CameraToWorld() mgl32.Mat4 {
	return c.ViewMatrix().Inv()
}

// FocalScale is tan(fov/2), the half-height of the image plane at distance 1.
func (c *CameraState) FocalScale() float32 {
	return math32.Tan(c.FovY / 2)
}
