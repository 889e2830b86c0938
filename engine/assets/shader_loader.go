package assets

import (
	"fmt"
	"os"
)

// LoadShader reads a GLSL file into a null-terminated string for OpenGL.
func LoadShader(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("load shader %q: %w", path, err)
	}
	return terminate(string(b)), nil
}

// terminate appends the NUL gl.Strs expects, unless already present.
func terminate(src string) string {
	if len(src) == 0 || src[len(src)-1] != 0 {
		return src + "\x00"
	}
	return src
}
