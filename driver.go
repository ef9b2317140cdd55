package vkr

import (
	vk "github.com/vulkan-go/vulkan"
)

// Driver is the device-level seam the renderer talks to. The Vulkan backed
// implementation is created by NewContext; every call is bound to the
// context's logical and physical device.
type Driver interface {
	SyncDriver
	CommandDriver
	QueueDriver
	SurfaceDriver
	MemoryDriver
	PipelineDriver
	DescriptorDriver
}

type SyncDriver interface {
	CreateSemaphore() (vk.Semaphore, error)
	DestroySemaphore(s vk.Semaphore)
	CreateFence(signaled bool) (vk.Fence, error)
	DestroyFence(f vk.Fence)
	WaitForFence(f vk.Fence, timeout uint64) error
	ResetFence(f vk.Fence) error
}

type CommandDriver interface {
	CreateCommandPool(family uint32, flags vk.CommandPoolCreateFlags) (vk.CommandPool, error)
	DestroyCommandPool(pool vk.CommandPool)
	AllocateCommandBuffers(pool vk.CommandPool, count uint32) ([]vk.CommandBuffer, error)
	FreeCommandBuffers(pool vk.CommandPool, cbs []vk.CommandBuffer)
	BeginCommandBuffer(cb vk.CommandBuffer, flags vk.CommandBufferUsageFlags) error
	EndCommandBuffer(cb vk.CommandBuffer) error
	ResetCommandBuffer(cb vk.CommandBuffer) error

	CmdPipelineBarrier(cb vk.CommandBuffer, src, dst vk.PipelineStageFlags, barrier vk.ImageMemoryBarrier)
	CmdBeginRenderPass(cb vk.CommandBuffer, rp vk.RenderPass, fb vk.Framebuffer, extent vk.Extent2D, clear []vk.ClearValue)
	CmdEndRenderPass(cb vk.CommandBuffer)
	CmdSetViewport(cb vk.CommandBuffer, viewport vk.Viewport)
	CmdSetScissor(cb vk.CommandBuffer, scissor vk.Rect2D)
	CmdBindPipeline(cb vk.CommandBuffer, p vk.Pipeline)
	CmdBindVertexBuffers(cb vk.CommandBuffer, first uint32, buffers []vk.Buffer, offsets []vk.DeviceSize)
	CmdBindIndexBuffer(cb vk.CommandBuffer, buffer vk.Buffer, offset vk.DeviceSize, indexType vk.IndexType)
	CmdBindDescriptorSets(cb vk.CommandBuffer, layout vk.PipelineLayout, first uint32, sets []vk.DescriptorSet)
	CmdDraw(cb vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32)
	CmdDrawIndexed(cb vk.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)
	CmdPushConstants(cb vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset uint32, data []byte)
	CmdCopyBuffer(cb vk.CommandBuffer, src, dst vk.Buffer, size vk.DeviceSize)
	CmdCopyBufferToImage(cb vk.CommandBuffer, src vk.Buffer, dst vk.Image, width, height uint32)
}

type QueueDriver interface {
	QueueSubmit(q vk.Queue, info vk.SubmitInfo, fence vk.Fence) error
	QueueWaitIdle(q vk.Queue) error
	// QueuePresent returns the raw result so out-of-date and suboptimal can
	// be told apart from failures.
	QueuePresent(q vk.Queue, wait vk.Semaphore, swapchain vk.Swapchain, imageIndex uint32) vk.Result
	DeviceWaitIdle() error
}

type SurfaceDriver interface {
	SurfaceCapabilities(surface vk.Surface) (vk.SurfaceCapabilities, error)
	SurfaceFormats(surface vk.Surface) ([]vk.SurfaceFormat, error)
	SurfacePresentModes(surface vk.Surface) ([]vk.PresentMode, error)
	CreateSwapchain(info vk.SwapchainCreateInfo) (vk.Swapchain, error)
	DestroySwapchain(sc vk.Swapchain)
	SwapchainImages(sc vk.Swapchain) ([]vk.Image, error)
	AcquireNextImage(sc vk.Swapchain, timeout uint64, signal vk.Semaphore) (uint32, vk.Result)
}

type MemoryDriver interface {
	MemoryProperties() vk.PhysicalDeviceMemoryProperties
	FormatProperties(format vk.Format) vk.FormatProperties

	CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags) (vk.Buffer, error)
	DestroyBuffer(b vk.Buffer)
	BufferMemoryRequirements(b vk.Buffer) vk.MemoryRequirements
	BindBufferMemory(b vk.Buffer, mem vk.DeviceMemory) error

	CreateImage(info vk.ImageCreateInfo) (vk.Image, error)
	DestroyImage(img vk.Image)
	ImageMemoryRequirements(img vk.Image) vk.MemoryRequirements
	BindImageMemory(img vk.Image, mem vk.DeviceMemory) error
	CreateImageView(info vk.ImageViewCreateInfo) (vk.ImageView, error)
	DestroyImageView(v vk.ImageView)
	CreateSampler(info vk.SamplerCreateInfo) (vk.Sampler, error)
	DestroySampler(s vk.Sampler)

	AllocateMemory(size vk.DeviceSize, typeIndex uint32) (vk.DeviceMemory, error)
	FreeMemory(mem vk.DeviceMemory)
	MapMemory(mem vk.DeviceMemory, offset, size vk.DeviceSize) ([]byte, error)
	UnmapMemory(mem vk.DeviceMemory)
}

type PipelineDriver interface {
	CreateShaderModule(code []byte) (vk.ShaderModule, error)
	DestroyShaderModule(m vk.ShaderModule)
	CreateRenderPass(info vk.RenderPassCreateInfo) (vk.RenderPass, error)
	DestroyRenderPass(rp vk.RenderPass)
	CreateFramebuffer(info vk.FramebufferCreateInfo) (vk.Framebuffer, error)
	DestroyFramebuffer(fb vk.Framebuffer)
	CreatePipelineLayout(info vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error)
	DestroyPipelineLayout(l vk.PipelineLayout)
	CreatePipelineCache() (vk.PipelineCache, error)
	DestroyPipelineCache(c vk.PipelineCache)
	CreateGraphicsPipeline(cache vk.PipelineCache, info vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error)
	DestroyPipeline(p vk.Pipeline)
}

type DescriptorDriver interface {
	CreateDescriptorSetLayout(info vk.DescriptorSetLayoutCreateInfo) (vk.DescriptorSetLayout, error)
	DestroyDescriptorSetLayout(l vk.DescriptorSetLayout)
	CreateDescriptorPool(info vk.DescriptorPoolCreateInfo) (vk.DescriptorPool, error)
	DestroyDescriptorPool(p vk.DescriptorPool)
	AllocateDescriptorSet(pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error)
	UpdateDescriptorSets(writes []vk.WriteDescriptorSet)
}
