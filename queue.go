package vkr

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// Queue is a device queue together with the family it was taken from.
type Queue struct {
	driver  QueueDriver
	Family  uint32
	VKQueue vk.Queue
}

func (q *Queue) WaitIdle() error {
	return q.driver.QueueWaitIdle(q.VKQueue)
}

// SubmitWaitIdle submits buffers without a fence and blocks until the queue
// drains.
func (q *Queue) SubmitWaitIdle(buffers ...*CommandBuffer) error {
	err := q.driver.QueueSubmit(q.VKQueue, vk.SubmitInfo{
		CommandBufferCount: uint32(len(buffers)),
		PCommandBuffers:    vkCommandBuffers(buffers),
	}, nil)
	if err != nil {
		return err
	}
	return q.WaitIdle()
}

// SubmitWithFence submits buffers waiting on wait at the color attachment
// output stage and signaling signal and fence once they retire.
func (q *Queue) SubmitWithFence(wait, signal vk.Semaphore, fence vk.Fence, buffers ...*CommandBuffer) error {
	return q.driver.QueueSubmit(q.VKQueue, vk.SubmitInfo{
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{wait},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   uint32(len(buffers)),
		PCommandBuffers:      vkCommandBuffers(buffers),
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{signal},
	}, fence)
}

func (q *Queue) Present(wait vk.Semaphore, swapchain vk.Swapchain, imageIndex uint32) vk.Result {
	return q.driver.QueuePresent(q.VKQueue, wait, swapchain, imageIndex)
}

func (q *Queue) String() string {
	return fmt.Sprintf("{Family: %d}", q.Family)
}

func vkCommandBuffers(buffers []*CommandBuffer) []vk.CommandBuffer {
	b := make([]vk.CommandBuffer, len(buffers))
	for i := range buffers {
		b[i] = buffers[i].VKCommandBuffer
	}
	return b
}
