package core

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex: pos2 => 2 floats
type Vertex struct {
	Position mgl32.Vec2
}

const VertexStride = int32(unsafe.Sizeof(Vertex{}))

// Unit quad in NDC, drawn as two triangles.
var QuadVertices = [4]Vertex{
	{Position: mgl32.Vec2{1, -1}},
	{Position: mgl32.Vec2{-1, -1}},
	{Position: mgl32.Vec2{-1, 1}},
	{Position: mgl32.Vec2{1, 1}},
}

var QuadIndices = [6]uint16{0, 1, 2, 0, 2, 3}

// QuadVertexData flattens QuadVertices for upload.
func QuadVertexData() []float32 {
	out := make([]float32, 0, len(QuadVertices)*2)
	for _, v := range QuadVertices {
		out = append(out, v.Position[0], v.Position[1])
	}
	return out
}

// Globals is the uniform record every fragment shader sees at binding 0.
// Shader side (std140):
//
//	layout(std140) uniform Globals {
//	    vec2 resolution; // offset 0
//	    float time;      // offset 8
//	};                   // padded to 16
type Globals struct {
	Resolution mgl32.Vec2
	Time       float32
	_          uint32
}

// Byte layout of Globals in the uniform buffer.
const (
	GlobalsResolutionOffset = 0
	GlobalsTimeOffset       = 8
	GlobalsSize             = 16
)

// CheckGlobalsLayout verifies the Go record still matches the layout constants.
func CheckGlobalsLayout() error {
	var g Globals
	if s := unsafe.Sizeof(g); s != GlobalsSize {
		return fmt.Errorf("globals: struct size %d, uniform layout expects %d", s, GlobalsSize)
	}
	if o := unsafe.Offsetof(g.Resolution); o != GlobalsResolutionOffset {
		return fmt.Errorf("globals: resolution at offset %d, want %d", o, GlobalsResolutionOffset)
	}
	if o := unsafe.Offsetof(g.Time); o != GlobalsTimeOffset {
		return fmt.Errorf("globals: time at offset %d, want %d", o, GlobalsTimeOffset)
	}
	return nil
}

// Encode writes g into dst[:GlobalsSize] and returns that slice.
func (g Globals) Encode(dst []byte) []byte {
	if cap(dst) < GlobalsSize {
		dst = make([]byte, GlobalsSize)
	}
	dst = dst[:GlobalsSize]
	le := binary.LittleEndian
	le.PutUint32(dst[GlobalsResolutionOffset:], math.Float32bits(g.Resolution[0]))
	le.PutUint32(dst[GlobalsResolutionOffset+4:], math.Float32bits(g.Resolution[1]))
	le.PutUint32(dst[GlobalsTimeOffset:], math.Float32bits(g.Time))
	le.PutUint32(dst[GlobalsTimeOffset+4:], 0)
	return dst
}
