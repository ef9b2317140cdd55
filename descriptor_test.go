package vkr

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestDescriptorSetWrites(t *testing.T) {
	f := newFakeDriver()
	ctx := newFakeContext(f)
	recorder := newTestRecorder(t, ctx)

	ubo, err := NewBuffer(ctx, recorder, BufferInfo{
		Size:  64,
		Usage: vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
	})
	require.NoError(t, err)
	defer ubo.Destroy()
	tex, err := NewColorTexture(ctx, recorder, image.NewRGBA(image.Rect(0, 0, 1, 1)))
	require.NoError(t, err)
	defer tex.Destroy()
	f.reset()

	set, err := NewDescriptorSet(ctx, DescriptorSetInfo{
		Bindings: []DescriptorBinding{
			{Binding: 0, Type: vk.DescriptorTypeUniformBuffer, Stages: vk.ShaderStageFlags(vk.ShaderStageVertexBit)},
			{Binding: 1, Type: vk.DescriptorTypeCombinedImageSampler, Stages: vk.ShaderStageFlags(vk.ShaderStageFragmentBit)},
		},
		Buffers:  []*Buffer{ubo},
		Textures: []*Texture{nil, tex},
	})
	require.NoError(t, err)

	// one write per binding per slot
	require.Len(t, f.writes, 4)
	for slot := 0; slot < MaxFramesInFlight; slot++ {
		bufWrite, texWrite := f.writes[slot*2], f.writes[slot*2+1]
		assert.Equal(t, set.Set(slot), bufWrite.DstSet)
		assert.Equal(t, ubo.VKBuffer(slot), bufWrite.PBufferInfo[0].Buffer)
		assert.Equal(t, vk.DeviceSize(64), bufWrite.PBufferInfo[0].Range)
		assert.Equal(t, uint32(1), texWrite.DstBinding)
		assert.Equal(t, tex.VKImageView, texWrite.PImageInfo[0].ImageView)
		assert.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, texWrite.PImageInfo[0].ImageLayout)
	}

	err = set.WriteTexture(0, tex)
	assert.Error(t, err, "plain sets have no texture array")

	set.Destroy()
	assert.Zero(t, f.liveKinds()["descriptor pool"])
	assert.Zero(t, f.liveKinds()["descriptor set layout"])
}

func TestDescriptorSetMissingResource(t *testing.T) {
	f := newFakeDriver()
	ctx := newFakeContext(f)
	_, err := NewDescriptorSet(ctx, DescriptorSetInfo{
		Bindings: []DescriptorBinding{{Binding: 0, Type: vk.DescriptorTypeUniformBuffer}},
	})
	var rerr *ResourceCreationError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "descriptor set", rerr.Kind)
	assert.Zero(t, f.liveKinds()["descriptor pool"])
}

func TestDescriptorSetRejectsArrayBinding(t *testing.T) {
	f := newFakeDriver()
	ctx := newFakeContext(f)
	recorder := newTestRecorder(t, ctx)
	tex, err := NewColorTexture(ctx, recorder, image.NewRGBA(image.Rect(0, 0, 1, 1)))
	require.NoError(t, err)
	defer tex.Destroy()
	f.reset()

	_, err = NewDescriptorSet(ctx, DescriptorSetInfo{
		Bindings: []DescriptorBinding{{
			Binding: 0,
			Type:    vk.DescriptorTypeCombinedImageSampler,
			Stages:  vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
			Count:   4,
		}},
		Textures: []*Texture{tex},
	})
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Contains(t, err.Error(), "binding 0 declares 4 descriptors")
	assert.Empty(t, f.writes)
	assert.Zero(t, f.liveKinds()["descriptor pool"])
	assert.Zero(t, f.liveKinds()["descriptor set layout"])

	// an explicit count of one is the default
	set, err := NewDescriptorSet(ctx, DescriptorSetInfo{
		Bindings: []DescriptorBinding{{
			Binding: 0,
			Type:    vk.DescriptorTypeCombinedImageSampler,
			Stages:  vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
			Count:   1,
		}},
		Textures: []*Texture{tex},
	})
	require.NoError(t, err)
	defer set.Destroy()
	require.Len(t, f.writes, MaxFramesInFlight)
	assert.Equal(t, uint32(1), f.writes[0].DescriptorCount)
}

func TestBindlessDescriptorSet(t *testing.T) {
	f := newFakeDriver()
	ctx := newFakeContext(f)
	recorder := newTestRecorder(t, ctx)

	def, err := NewColorTexture(ctx, recorder, image.NewRGBA(image.Rect(0, 0, 1, 1)))
	require.NoError(t, err)
	defer def.Destroy()
	tex, err := NewColorTexture(ctx, recorder, image.NewRGBA(image.Rect(0, 0, 2, 2)))
	require.NoError(t, err)
	defer tex.Destroy()
	f.reset()

	set, err := NewDescriptorSet(ctx, DescriptorSetInfo{Bindless: true, MaxTextures: 4, Default: def})
	require.NoError(t, err)
	defer set.Destroy()

	// every element of both slots starts at the default texture
	require.Len(t, f.writes, 8)
	for _, w := range f.writes {
		assert.Equal(t, def.VKImageView, w.PImageInfo[0].ImageView)
	}
	f.reset()

	require.NoError(t, set.WriteTexture(3, tex))
	require.Len(t, f.writes, 2)
	for slot, w := range f.writes {
		assert.Equal(t, set.Set(slot), w.DstSet)
		assert.Equal(t, uint32(3), w.DstArrayElement)
		assert.Equal(t, tex.VKSampler, w.PImageInfo[0].Sampler)
	}

	assert.ErrorIs(t, set.WriteTexture(4, tex), ErrOutOfRange)
}

func TestBindlessDescriptorSetNeedsDefault(t *testing.T) {
	ctx := newFakeContext(newFakeDriver())
	_, err := NewDescriptorSet(ctx, DescriptorSetInfo{Bindless: true, MaxTextures: 4})
	assert.Error(t, err)
	_, err = NewDescriptorSet(ctx, DescriptorSetInfo{Bindless: true, Default: &Texture{}})
	assert.ErrorIs(t, err, ErrOutOfRange)
}
