// Package pipeline carries the per-frame state every render stage reads. A
// Context is built once per frame and passed explicitly to each stage.
package pipeline

import (
	"image/color"

	"dualmode-renderer/internal/camera"
	"dualmode-renderer/internal/dispatch"
	"dualmode-renderer/internal/framebuf"
	"dualmode-renderer/internal/scene"
	"dualmode-renderer/internal/shade"
)

// Span is an inclusive index range. Lo > Hi is empty.
type Span struct {
	Lo, Hi int
}

// Full returns the span covering [0, n).
func Full(n int) Span {
	return Span{Lo: 0, Hi: n - 1}
}

// Contains reports whether i lies in the span.
func (s Span) Contains(i int) bool {
	return i >= s.Lo && i <= s.Hi
}

// Len returns the number of indices in the span.
func (s Span) Len() int {
	if s.Hi < s.Lo {
		return 0
	}
	return s.Hi - s.Lo + 1
}

// Context is the read-only input of one frame plus the handles of the
// shared output buffers. Stages never mutate Frame, Scene or Light.
type Context struct {
	Dispatcher *dispatch.Dispatcher
	Frame      *camera.Frame
	Scene      *scene.Buffer
	Target     *framebuf.FrameBuffer
	Light      *shade.LightConfig
	Background color.NRGBA

	// Debug limits: only triangles and pixels inside these spans are
	// processed.
	Triangles Span
	Pixels    Span
}

// Clear resets the target for a new frame. It returns once every pixel has
// been reset.
func (c *Context) Clear() error {
	return c.Target.Clear(c.Dispatcher, c.Background)
}
