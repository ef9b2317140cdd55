package vkr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestFramebuffersFollowSwapchain(t *testing.T) {
	f := newFakeDriver()
	ctx := newFakeContext(f)
	sc, err := NewSwapchain(ctx)
	require.NoError(t, err)
	defer sc.Destroy()
	depth, err := NewDepthTexture(ctx, sc.Extent)
	require.NoError(t, err)
	defer depth.Destroy()
	rp, err := NewRenderPass(ctx, sc.Format, depth.Format)
	require.NoError(t, err)
	defer rp.Destroy()

	fbs, err := NewFramebuffers(ctx, rp, sc, depth)
	require.NoError(t, err)
	assert.Len(t, fbs.VKFramebuffers, len(sc.Views))
	for i, info := range f.framebuffers {
		require.Len(t, info.PAttachments, 2)
		assert.Equal(t, sc.Views[i], info.PAttachments[0])
		assert.Equal(t, depth.VKImageView, info.PAttachments[1])
		assert.Equal(t, uint32(800), info.Width)
		assert.Equal(t, uint32(1), info.Layers)
	}

	require.NoError(t, fbs.Recreate(vk.Extent2D{Width: 10, Height: 20}))
	assert.Equal(t, 2*len(sc.Views), len(f.framebuffers))
	assert.Equal(t, len(sc.Views), f.liveKinds()["framebuffer"])

	fbs.Destroy()
	assert.Zero(t, f.liveKinds()["framebuffer"])
	assert.Len(t, rp.ClearValues(ClearColor{1, 0, 0, 1}), 2)
}

func TestRenderPassDepthDependency(t *testing.T) {
	f := newFakeDriver()
	ctx := newFakeContext(f)
	rp, err := NewRenderPass(ctx, vk.FormatB8g8r8a8Unorm, vk.FormatD32Sfloat)
	require.NoError(t, err)
	defer rp.Destroy()

	require.Len(t, f.renderPasses, 1)
	require.Len(t, f.renderPasses[0].PDependencies, 1)
	dep := f.renderPasses[0].PDependencies[0]
	assert.True(t, hasFlag(dep.SrcStageMask, vk.PipelineStageFlags(vk.PipelineStageLateFragmentTestsBit)))
	assert.True(t, hasFlag(dep.SrcStageMask, vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)))
	assert.Equal(t, vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit), dep.SrcAccessMask)

	colorOnly, err := NewRenderPass(ctx, vk.FormatB8g8r8a8Unorm, vk.FormatUndefined)
	require.NoError(t, err)
	defer colorOnly.Destroy()
	assert.Zero(t, f.renderPasses[1].PDependencies[0].SrcAccessMask)
}
