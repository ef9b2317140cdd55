package vkr

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// PipelineInfo configures a graphics pipeline. Start from
// DefaultPipelineInfo; enum zero values are not the defaults.
type PipelineInfo struct {
	VertexShader   *Shader
	FragmentShader *Shader
	GeometryShader *Shader

	VertexLayout VertexLayout

	// Topology defaults to a triangle list
	Topology    vk.PrimitiveTopology
	PolygonMode vk.PolygonMode
	CullMode    vk.CullModeFlagBits
	FrontFace   vk.FrontFace

	BlendEnable    bool
	DepthTest      bool
	DepthWrite     bool
	DepthCompareOp vk.CompareOp

	SetLayouts []vk.DescriptorSetLayout

	// PushConstantSize of zero disables push constants.
	PushConstantSize   uint32
	PushConstantStages vk.ShaderStageFlags

	Cache vk.PipelineCache
}

func DefaultPipelineInfo() PipelineInfo {
	return PipelineInfo{
		Topology:       vk.PrimitiveTopologyTriangleList,
		PolygonMode:    vk.PolygonModeFill,
		CullMode:       vk.CullModeBackBit,
		FrontFace:      vk.FrontFaceCounterClockwise,
		DepthTest:      true,
		DepthWrite:     true,
		DepthCompareOp: vk.CompareOpLess,
		PushConstantStages: vk.ShaderStageFlags(vk.ShaderStageVertexBit |
			vk.ShaderStageFragmentBit),
	}
}

// Pipeline is an immutable graphics pipeline and its layout.
type Pipeline struct {
	driver PipelineDriver

	VKPipeline       vk.Pipeline
	VKPipelineLayout vk.PipelineLayout

	PushConstantSize   uint32
	PushConstantStages vk.ShaderStageFlags

	// globalSets is the number of renderer owned sets ahead of the
	// application's sets in the layout.
	globalSets uint32
}

func boolToVk(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}

func checkStage(s *Shader, want vk.ShaderStageFlagBits, name string) error {
	if s == nil {
		return errors.Errorf("%s shader is required", name)
	}
	if s.Stage != want {
		return errors.Wrapf(ErrShaderStageMismatch, "%s slot holds stage %#x", name, s.Stage)
	}
	return nil
}

func (info PipelineInfo) stages() ([]vk.PipelineShaderStageCreateInfo, error) {
	if err := checkStage(info.VertexShader, vk.ShaderStageVertexBit, "vertex"); err != nil {
		return nil, err
	}
	if err := checkStage(info.FragmentShader, vk.ShaderStageFragmentBit, "fragment"); err != nil {
		return nil, err
	}
	stages := []vk.PipelineShaderStageCreateInfo{info.VertexShader.StageInfo()}
	if info.GeometryShader != nil {
		if err := checkStage(info.GeometryShader, vk.ShaderStageGeometryBit, "geometry"); err != nil {
			return nil, err
		}
		stages = append(stages, info.GeometryShader.StageInfo())
	}
	return append(stages, info.FragmentShader.StageInfo()), nil
}

// NewPipeline builds the layout and the pipeline for subpass 0 of
// renderPass. Viewport and scissor are dynamic state.
func NewPipeline(ctx *Context, renderPass *RenderPass, info PipelineInfo) (*Pipeline, error) {
	stages, err := info.stages()
	if err != nil {
		return nil, resourceError("pipeline", err)
	}

	layoutInfo := vk.PipelineLayoutCreateInfo{
		SetLayoutCount: uint32(len(info.SetLayouts)),
		PSetLayouts:    info.SetLayouts,
	}
	if info.PushConstantSize > 0 {
		layoutInfo.PushConstantRangeCount = 1
		layoutInfo.PPushConstantRanges = []vk.PushConstantRange{{
			StageFlags: info.PushConstantStages,
			Offset:     0,
			Size:       info.PushConstantSize,
		}}
	}
	layout, err := ctx.Driver.CreatePipelineLayout(layoutInfo)
	if err != nil {
		return nil, resourceError("pipeline layout", err)
	}

	bindings := []vk.VertexInputBindingDescription{}
	attributes := info.VertexLayout.AttributeDescriptions()
	if info.VertexLayout.Stride > 0 {
		bindings = append(bindings, info.VertexLayout.BindingDescription())
	}
	vertexInputState := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(bindings)),
		PVertexBindingDescriptions:      bindings,
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}

	inputAssemblyState := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               info.Topology,
		PrimitiveRestartEnable: vk.False,
	}

	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	rasterState := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             info.PolygonMode,
		CullMode:                vk.CullModeFlags(info.CullMode),
		FrontFace:               info.FrontFace,
		DepthBiasEnable:         vk.False,
		LineWidth:               1.0,
	}

	multisampleState := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		SampleShadingEnable:  vk.False,
	}

	blendAttachment := vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
		BlendEnable:    vk.False,
	}
	if info.BlendEnable {
		blendAttachment.BlendEnable = vk.True
		blendAttachment.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
		blendAttachment.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		blendAttachment.ColorBlendOp = vk.BlendOpAdd
		blendAttachment.SrcAlphaBlendFactor = vk.BlendFactorOne
		blendAttachment.DstAlphaBlendFactor = vk.BlendFactorZero
		blendAttachment.AlphaBlendOp = vk.BlendOpAdd
	}
	colorBlendState := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{blendAttachment},
	}

	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       boolToVk(info.DepthTest),
		DepthWriteEnable:      boolToVk(info.DepthWrite),
		DepthCompareOp:        info.DepthCompareOp,
		DepthBoundsTestEnable: vk.False,
		MinDepthBounds:        0.0,
		MaxDepthBounds:        1.0,
		StencilTestEnable:     vk.False,
	}

	dynamicStates := []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	p, err := ctx.Driver.CreateGraphicsPipeline(info.Cache, vk.GraphicsPipelineCreateInfo{
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInputState,
		PInputAssemblyState: &inputAssemblyState,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterState,
		PMultisampleState:   &multisampleState,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlendState,
		PDynamicState:       &dynamicState,
		Layout:              layout,
		RenderPass:          renderPass.VKRenderPass,
		Subpass:             0,
	})
	if err != nil {
		ctx.Driver.DestroyPipelineLayout(layout)
		return nil, resourceError("pipeline", err)
	}

	return &Pipeline{
		driver:             ctx.Driver,
		VKPipeline:         p,
		VKPipelineLayout:   layout,
		PushConstantSize:   info.PushConstantSize,
		PushConstantStages: info.PushConstantStages,
	}, nil
}

func (p *Pipeline) Destroy() {
	if p.VKPipeline != vk.NullPipeline {
		p.driver.DestroyPipeline(p.VKPipeline)
		p.VKPipeline = vk.NullPipeline
	}
	if p.VKPipelineLayout != vk.NullPipelineLayout {
		p.driver.DestroyPipelineLayout(p.VKPipelineLayout)
		p.VKPipelineLayout = vk.NullPipelineLayout
	}
}
