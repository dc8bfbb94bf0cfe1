package pipeline

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
)

// Compiler turns a WGSL module into SPIR-V words.
type Compiler interface {
	Compile(wgsl string) ([]uint32, error)
}

// CompilerFunc adapts a function to Compiler.
type CompilerFunc func(wgsl string) ([]uint32, error)

// Compile calls f.
func (f CompilerFunc) Compile(wgsl string) ([]uint32, error) { return f(wgsl) }

// NagaCompiler compiles WGSL with gogpu/naga.
var NagaCompiler Compiler = CompilerFunc(compileNaga)

func compileNaga(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("naga: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("naga: SPIR-V length %d is not a multiple of 4", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}
