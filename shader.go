package vkr

import (
	"os"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Shader is a SPIR-V module for a single pipeline stage.
type Shader struct {
	driver PipelineDriver

	Stage          vk.ShaderStageFlagBits
	VKShaderModule vk.ShaderModule
}

func validShaderStage(stage vk.ShaderStageFlagBits) bool {
	switch stage {
	case vk.ShaderStageVertexBit, vk.ShaderStageFragmentBit, vk.ShaderStageGeometryBit:
		return true
	}
	return false
}

// NewShader creates a module from SPIR-V code. Only vertex, fragment and
// geometry stages are accepted.
func NewShader(ctx *Context, code []byte, stage vk.ShaderStageFlagBits) (*Shader, error) {
	if !validShaderStage(stage) {
		return nil, resourceError("shader", errors.Wrapf(ErrInvalidShaderStage, "stage %#x", stage))
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, resourceError("shader", errors.Wrapf(ErrInvalidShaderCode, "%d bytes", len(code)))
	}
	m, err := ctx.Driver.CreateShaderModule(code)
	if err != nil {
		return nil, resourceError("shader", err)
	}
	return &Shader{driver: ctx.Driver, Stage: stage, VKShaderModule: m}, nil
}

// LoadShader reads a compiled SPIR-V file.
func LoadShader(ctx *Context, path string, stage vk.ShaderStageFlagBits) (*Shader, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, resourceError("shader", errors.Wrap(err, "read shader"))
	}
	return NewShader(ctx, code, stage)
}

// StageInfo describes the shader as a pipeline stage with entry point main.
func (s *Shader) StageInfo() vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  s.Stage,
		Module: s.VKShaderModule,
		PName:  safeString("main"),
	}
}

func (s *Shader) Destroy() {
	if s.VKShaderModule != vk.NullShaderModule {
		s.driver.DestroyShaderModule(s.VKShaderModule)
		s.VKShaderModule = vk.NullShaderModule
	}
}
