package vkr

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// vulkanDriver issues Driver calls against a live device.
type vulkanDriver struct {
	device   vk.Device
	physical vk.PhysicalDevice
}

func newVulkanDriver(device vk.Device, physical vk.PhysicalDevice) *vulkanDriver {
	return &vulkanDriver{device: device, physical: physical}
}

func (d *vulkanDriver) CreateSemaphore() (vk.Semaphore, error) {
	var s vk.Semaphore
	err := NewError(vk.CreateSemaphore(d.device, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &s))
	return s, err
}

func (d *vulkanDriver) DestroySemaphore(s vk.Semaphore) {
	vk.DestroySemaphore(d.device, s, nil)
}

func (d *vulkanDriver) CreateFence(signaled bool) (vk.Fence, error) {
	info := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	if signaled {
		info.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var f vk.Fence
	err := NewError(vk.CreateFence(d.device, &info, nil, &f))
	return f, err
}

func (d *vulkanDriver) DestroyFence(f vk.Fence) {
	vk.DestroyFence(d.device, f, nil)
}

func (d *vulkanDriver) WaitForFence(f vk.Fence, timeout uint64) error {
	return NewError(vk.WaitForFences(d.device, 1, []vk.Fence{f}, vk.True, timeout))
}

func (d *vulkanDriver) ResetFence(f vk.Fence) error {
	return NewError(vk.ResetFences(d.device, 1, []vk.Fence{f}))
}

func (d *vulkanDriver) CreateCommandPool(family uint32, flags vk.CommandPoolCreateFlags) (vk.CommandPool, error) {
	var pool vk.CommandPool
	err := NewError(vk.CreateCommandPool(d.device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            flags,
		QueueFamilyIndex: family,
	}, nil, &pool))
	return pool, err
}

func (d *vulkanDriver) DestroyCommandPool(pool vk.CommandPool) {
	vk.DestroyCommandPool(d.device, pool, nil)
}

func (d *vulkanDriver) AllocateCommandBuffers(pool vk.CommandPool, count uint32) ([]vk.CommandBuffer, error) {
	cbs := make([]vk.CommandBuffer, count)
	err := NewError(vk.AllocateCommandBuffers(d.device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	}, cbs))
	if err != nil {
		return nil, err
	}
	return cbs, nil
}

func (d *vulkanDriver) FreeCommandBuffers(pool vk.CommandPool, cbs []vk.CommandBuffer) {
	vk.FreeCommandBuffers(d.device, pool, uint32(len(cbs)), cbs)
}

func (d *vulkanDriver) BeginCommandBuffer(cb vk.CommandBuffer, flags vk.CommandBufferUsageFlags) error {
	return NewError(vk.BeginCommandBuffer(cb, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: flags,
	}))
}

func (d *vulkanDriver) EndCommandBuffer(cb vk.CommandBuffer) error {
	return NewError(vk.EndCommandBuffer(cb))
}

func (d *vulkanDriver) ResetCommandBuffer(cb vk.CommandBuffer) error {
	return NewError(vk.ResetCommandBuffer(cb, 0))
}

func (d *vulkanDriver) CmdPipelineBarrier(cb vk.CommandBuffer, src, dst vk.PipelineStageFlags, barrier vk.ImageMemoryBarrier) {
	vk.CmdPipelineBarrier(cb, src, dst, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

func (d *vulkanDriver) CmdBeginRenderPass(cb vk.CommandBuffer, rp vk.RenderPass, fb vk.Framebuffer, extent vk.Extent2D, clear []vk.ClearValue) {
	vk.CmdBeginRenderPass(cb, &vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp,
		Framebuffer: fb,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValueCount: uint32(len(clear)),
		PClearValues:    clear,
	}, vk.SubpassContentsInline)
}

func (d *vulkanDriver) CmdEndRenderPass(cb vk.CommandBuffer) {
	vk.CmdEndRenderPass(cb)
}

func (d *vulkanDriver) CmdSetViewport(cb vk.CommandBuffer, viewport vk.Viewport) {
	vk.CmdSetViewport(cb, 0, 1, []vk.Viewport{viewport})
}

func (d *vulkanDriver) CmdSetScissor(cb vk.CommandBuffer, scissor vk.Rect2D) {
	vk.CmdSetScissor(cb, 0, 1, []vk.Rect2D{scissor})
}

func (d *vulkanDriver) CmdBindPipeline(cb vk.CommandBuffer, p vk.Pipeline) {
	vk.CmdBindPipeline(cb, vk.PipelineBindPointGraphics, p)
}

func (d *vulkanDriver) CmdBindVertexBuffers(cb vk.CommandBuffer, first uint32, buffers []vk.Buffer, offsets []vk.DeviceSize) {
	vk.CmdBindVertexBuffers(cb, first, uint32(len(buffers)), buffers, offsets)
}

func (d *vulkanDriver) CmdBindIndexBuffer(cb vk.CommandBuffer, buffer vk.Buffer, offset vk.DeviceSize, indexType vk.IndexType) {
	vk.CmdBindIndexBuffer(cb, buffer, offset, indexType)
}

func (d *vulkanDriver) CmdBindDescriptorSets(cb vk.CommandBuffer, layout vk.PipelineLayout, first uint32, sets []vk.DescriptorSet) {
	vk.CmdBindDescriptorSets(cb, vk.PipelineBindPointGraphics, layout, first, uint32(len(sets)), sets, 0, nil)
}

func (d *vulkanDriver) CmdDraw(cb vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(cb, vertexCount, instanceCount, firstVertex, firstInstance)
}

func (d *vulkanDriver) CmdDrawIndexed(cb vk.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	vk.CmdDrawIndexed(cb, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

func (d *vulkanDriver) CmdPushConstants(cb vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset uint32, data []byte) {
	if len(data) == 0 {
		return
	}
	vk.CmdPushConstants(cb, layout, stages, offset, uint32(len(data)), unsafe.Pointer(&data[0]))
}

func (d *vulkanDriver) CmdCopyBuffer(cb vk.CommandBuffer, src, dst vk.Buffer, size vk.DeviceSize) {
	vk.CmdCopyBuffer(cb, src, dst, 1, []vk.BufferCopy{{SrcOffset: 0, DstOffset: 0, Size: size}})
}

func (d *vulkanDriver) CmdCopyBufferToImage(cb vk.CommandBuffer, src vk.Buffer, dst vk.Image, width, height uint32) {
	vk.CmdCopyBufferToImage(cb, src, dst, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{
		{
			BufferOffset:      0,
			BufferRowLength:   0,
			BufferImageHeight: 0,
			ImageSubresource: vk.ImageSubresourceLayers{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				MipLevel:       0,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			ImageOffset: vk.Offset3D{X: 0, Y: 0, Z: 0},
			ImageExtent: vk.Extent3D{Width: width, Height: height, Depth: 1},
		},
	})
}

func (d *vulkanDriver) QueueSubmit(q vk.Queue, info vk.SubmitInfo, fence vk.Fence) error {
	info.SType = vk.StructureTypeSubmitInfo
	return NewError(vk.QueueSubmit(q, 1, []vk.SubmitInfo{info}, fence))
}

func (d *vulkanDriver) QueueWaitIdle(q vk.Queue) error {
	return NewError(vk.QueueWaitIdle(q))
}

func (d *vulkanDriver) QueuePresent(q vk.Queue, wait vk.Semaphore, swapchain vk.Swapchain, imageIndex uint32) vk.Result {
	return vk.QueuePresent(q, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{swapchain},
		PImageIndices:      []uint32{imageIndex},
	})
}

func (d *vulkanDriver) DeviceWaitIdle() error {
	return NewError(vk.DeviceWaitIdle(d.device))
}

func (d *vulkanDriver) SurfaceCapabilities(surface vk.Surface) (vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	if err := NewError(vk.GetPhysicalDeviceSurfaceCapabilities(d.physical, surface, &caps)); err != nil {
		return caps, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return caps, nil
}

func (d *vulkanDriver) SurfaceFormats(surface vk.Surface) ([]vk.SurfaceFormat, error) {
	return surfaceFormats(d.physical, surface)
}

func (d *vulkanDriver) SurfacePresentModes(surface vk.Surface) ([]vk.PresentMode, error) {
	return surfacePresentModes(d.physical, surface)
}

func (d *vulkanDriver) CreateSwapchain(info vk.SwapchainCreateInfo) (vk.Swapchain, error) {
	info.SType = vk.StructureTypeSwapchainCreateInfo
	var sc vk.Swapchain
	err := NewError(vk.CreateSwapchain(d.device, &info, nil, &sc))
	return sc, err
}

func (d *vulkanDriver) DestroySwapchain(sc vk.Swapchain) {
	vk.DestroySwapchain(d.device, sc, nil)
}

func (d *vulkanDriver) SwapchainImages(sc vk.Swapchain) ([]vk.Image, error) {
	var count uint32
	if err := NewError(vk.GetSwapchainImages(d.device, sc, &count, nil)); err != nil {
		return nil, err
	}
	images := make([]vk.Image, count)
	if err := NewError(vk.GetSwapchainImages(d.device, sc, &count, images)); err != nil {
		return nil, err
	}
	return images[:count], nil
}

func (d *vulkanDriver) AcquireNextImage(sc vk.Swapchain, timeout uint64, signal vk.Semaphore) (uint32, vk.Result) {
	var idx uint32
	ret := vk.AcquireNextImage(d.device, sc, timeout, signal, vk.NullFence, &idx)
	return idx, ret
}

func (d *vulkanDriver) MemoryProperties() vk.PhysicalDeviceMemoryProperties {
	var mp vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(d.physical, &mp)
	mp.Deref()
	for i := uint32(0); i < mp.MemoryTypeCount; i++ {
		mp.MemoryTypes[i].Deref()
	}
	return mp
}

func (d *vulkanDriver) FormatProperties(format vk.Format) vk.FormatProperties {
	var props vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(d.physical, format, &props)
	props.Deref()
	return props
}

func (d *vulkanDriver) CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags) (vk.Buffer, error) {
	var b vk.Buffer
	err := NewError(vk.CreateBuffer(d.device, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}, nil, &b))
	return b, err
}

func (d *vulkanDriver) DestroyBuffer(b vk.Buffer) {
	vk.DestroyBuffer(d.device, b, nil)
}

func (d *vulkanDriver) BufferMemoryRequirements(b vk.Buffer) vk.MemoryRequirements {
	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.device, b, &req)
	req.Deref()
	return req
}

func (d *vulkanDriver) BindBufferMemory(b vk.Buffer, mem vk.DeviceMemory) error {
	return NewError(vk.BindBufferMemory(d.device, b, mem, 0))
}

func (d *vulkanDriver) CreateImage(info vk.ImageCreateInfo) (vk.Image, error) {
	info.SType = vk.StructureTypeImageCreateInfo
	var img vk.Image
	err := NewError(vk.CreateImage(d.device, &info, nil, &img))
	return img, err
}

func (d *vulkanDriver) DestroyImage(img vk.Image) {
	vk.DestroyImage(d.device, img, nil)
}

func (d *vulkanDriver) ImageMemoryRequirements(img vk.Image) vk.MemoryRequirements {
	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.device, img, &req)
	req.Deref()
	return req
}

func (d *vulkanDriver) BindImageMemory(img vk.Image, mem vk.DeviceMemory) error {
	return NewError(vk.BindImageMemory(d.device, img, mem, 0))
}

func (d *vulkanDriver) CreateImageView(info vk.ImageViewCreateInfo) (vk.ImageView, error) {
	info.SType = vk.StructureTypeImageViewCreateInfo
	var v vk.ImageView
	err := NewError(vk.CreateImageView(d.device, &info, nil, &v))
	return v, err
}

func (d *vulkanDriver) DestroyImageView(v vk.ImageView) {
	vk.DestroyImageView(d.device, v, nil)
}

func (d *vulkanDriver) CreateSampler(info vk.SamplerCreateInfo) (vk.Sampler, error) {
	info.SType = vk.StructureTypeSamplerCreateInfo
	var s vk.Sampler
	err := NewError(vk.CreateSampler(d.device, &info, nil, &s))
	return s, err
}

func (d *vulkanDriver) DestroySampler(s vk.Sampler) {
	vk.DestroySampler(d.device, s, nil)
}

func (d *vulkanDriver) AllocateMemory(size vk.DeviceSize, typeIndex uint32) (vk.DeviceMemory, error) {
	var mem vk.DeviceMemory
	err := NewError(vk.AllocateMemory(d.device, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  size,
		MemoryTypeIndex: typeIndex,
	}, nil, &mem))
	return mem, err
}

func (d *vulkanDriver) FreeMemory(mem vk.DeviceMemory) {
	vk.FreeMemory(d.device, mem, nil)
}

func (d *vulkanDriver) MapMemory(mem vk.DeviceMemory, offset, size vk.DeviceSize) ([]byte, error) {
	var ptr unsafe.Pointer
	if err := NewError(vk.MapMemory(d.device, mem, offset, size, 0, &ptr)); err != nil {
		return nil, err
	}
	return ToBytes(ptr, int(size)), nil
}

func (d *vulkanDriver) UnmapMemory(mem vk.DeviceMemory) {
	vk.UnmapMemory(d.device, mem)
}

func (d *vulkanDriver) CreateShaderModule(code []byte) (vk.ShaderModule, error) {
	var m vk.ShaderModule
	err := NewError(vk.CreateShaderModule(d.device, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    sliceUint32(code),
	}, nil, &m))
	return m, err
}

func (d *vulkanDriver) DestroyShaderModule(m vk.ShaderModule) {
	vk.DestroyShaderModule(d.device, m, nil)
}

func (d *vulkanDriver) CreateRenderPass(info vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	info.SType = vk.StructureTypeRenderPassCreateInfo
	var rp vk.RenderPass
	err := NewError(vk.CreateRenderPass(d.device, &info, nil, &rp))
	return rp, err
}

func (d *vulkanDriver) DestroyRenderPass(rp vk.RenderPass) {
	vk.DestroyRenderPass(d.device, rp, nil)
}

func (d *vulkanDriver) CreateFramebuffer(info vk.FramebufferCreateInfo) (vk.Framebuffer, error) {
	info.SType = vk.StructureTypeFramebufferCreateInfo
	var fb vk.Framebuffer
	err := NewError(vk.CreateFramebuffer(d.device, &info, nil, &fb))
	return fb, err
}

func (d *vulkanDriver) DestroyFramebuffer(fb vk.Framebuffer) {
	vk.DestroyFramebuffer(d.device, fb, nil)
}

func (d *vulkanDriver) CreatePipelineLayout(info vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error) {
	info.SType = vk.StructureTypePipelineLayoutCreateInfo
	var l vk.PipelineLayout
	err := NewError(vk.CreatePipelineLayout(d.device, &info, nil, &l))
	return l, err
}

func (d *vulkanDriver) DestroyPipelineLayout(l vk.PipelineLayout) {
	vk.DestroyPipelineLayout(d.device, l, nil)
}

func (d *vulkanDriver) CreatePipelineCache() (vk.PipelineCache, error) {
	var c vk.PipelineCache
	err := NewError(vk.CreatePipelineCache(d.device, &vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}, nil, &c))
	return c, err
}

func (d *vulkanDriver) DestroyPipelineCache(c vk.PipelineCache) {
	vk.DestroyPipelineCache(d.device, c, nil)
}

func (d *vulkanDriver) CreateGraphicsPipeline(cache vk.PipelineCache, info vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error) {
	info.SType = vk.StructureTypeGraphicsPipelineCreateInfo
	pipelines := make([]vk.Pipeline, 1)
	err := NewError(vk.CreateGraphicsPipelines(d.device, cache, 1, []vk.GraphicsPipelineCreateInfo{info}, nil, pipelines))
	if err != nil {
		return vk.NullPipeline, err
	}
	return pipelines[0], nil
}

func (d *vulkanDriver) DestroyPipeline(p vk.Pipeline) {
	vk.DestroyPipeline(d.device, p, nil)
}

func (d *vulkanDriver) CreateDescriptorSetLayout(info vk.DescriptorSetLayoutCreateInfo) (vk.DescriptorSetLayout, error) {
	info.SType = vk.StructureTypeDescriptorSetLayoutCreateInfo
	var l vk.DescriptorSetLayout
	err := NewError(vk.CreateDescriptorSetLayout(d.device, &info, nil, &l))
	return l, err
}

func (d *vulkanDriver) DestroyDescriptorSetLayout(l vk.DescriptorSetLayout) {
	vk.DestroyDescriptorSetLayout(d.device, l, nil)
}

func (d *vulkanDriver) CreateDescriptorPool(info vk.DescriptorPoolCreateInfo) (vk.DescriptorPool, error) {
	info.SType = vk.StructureTypeDescriptorPoolCreateInfo
	var p vk.DescriptorPool
	err := NewError(vk.CreateDescriptorPool(d.device, &info, nil, &p))
	return p, err
}

func (d *vulkanDriver) DestroyDescriptorPool(p vk.DescriptorPool) {
	vk.DestroyDescriptorPool(d.device, p, nil)
}

func (d *vulkanDriver) AllocateDescriptorSet(pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	var set vk.DescriptorSet
	err := NewError(vk.AllocateDescriptorSets(d.device, &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}, &set))
	return set, err
}

func (d *vulkanDriver) UpdateDescriptorSets(writes []vk.WriteDescriptorSet) {
	if len(writes) == 0 {
		return
	}
	for i := range writes {
		writes[i].SType = vk.StructureTypeWriteDescriptorSet
	}
	vk.UpdateDescriptorSets(d.device, uint32(len(writes)), writes, 0, nil)
}
