package vkr

import (
	vk "github.com/vulkan-go/vulkan"
)

// CommandBuffer is a primary command buffer. Only the commands the renderer
// records are wrapped; VK exposes the native handle for anything else.
type CommandBuffer struct {
	driver          CommandDriver
	VKCommandBuffer vk.CommandBuffer
}

// Reset this command buffer
func (c *CommandBuffer) Reset() error {
	return c.driver.ResetCommandBuffer(c.VKCommandBuffer)
}

// VK is a utility function for accessing the native vulkan command buffer
func (c *CommandBuffer) VK() vk.CommandBuffer {
	return c.VKCommandBuffer
}

// Begin capturing work for this command buffer
func (c *CommandBuffer) Begin() error {
	return c.driver.BeginCommandBuffer(c.VKCommandBuffer, 0)
}

// BeginOneTime begins capturing work that will be submitted exactly once.
func (c *CommandBuffer) BeginOneTime() error {
	return c.driver.BeginCommandBuffer(c.VKCommandBuffer, vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit))
}

// End describing work for this command buffer
func (c *CommandBuffer) End() error {
	return c.driver.EndCommandBuffer(c.VKCommandBuffer)
}

// CmdTransitionImage records a barrier moving image from one layout to
// another. Pairs outside the transition table panic.
func (c *CommandBuffer) CmdTransitionImage(image vk.Image, aspect vk.ImageAspectFlags, from, to vk.ImageLayout) {
	barrier, src, dst := layoutBarrier(image, aspect, from, to)
	c.driver.CmdPipelineBarrier(c.VKCommandBuffer, src, dst, barrier)
}

func (c *CommandBuffer) CmdCopyBuffer(src, dst vk.Buffer, size vk.DeviceSize) {
	c.driver.CmdCopyBuffer(c.VKCommandBuffer, src, dst, size)
}

func (c *CommandBuffer) CmdCopyBufferToImage(src vk.Buffer, dst vk.Image, width, height uint32) {
	c.driver.CmdCopyBufferToImage(c.VKCommandBuffer, src, dst, width, height)
}
