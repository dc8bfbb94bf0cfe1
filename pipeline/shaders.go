package pipeline

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed shaders/*.wgsl
var shaderFS embed.FS

// Entry points shared by every program.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// BaselineShader names the fallback program. It draws the palette
// gradient without the dichromatic transform.
const BaselineShader = "passthrough"

// Program assembles the complete WGSL module for a fragment program: the
// shared uniform block and vertex stage, the grade and dichromatic
// transform, then the scene's scene_color function. The baseline program
// skips the transform.
func Program(shader string) (string, error) {
	parts := []string{"quad", "dichromat", shader}
	if shader == BaselineShader {
		parts = []string{"quad", BaselineShader}
	}
	var b strings.Builder
	for _, name := range parts {
		src, err := shaderFS.ReadFile("shaders/" + name + ".wgsl")
		if err != nil {
			return "", fmt.Errorf("pipeline: shader %q: %w", name, err)
		}
		b.Write(src)
		b.WriteByte('\n')
	}
	return b.String(), nil
}
