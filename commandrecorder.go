package vkr

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// CommandRecorder owns the graphics command pool, one primary buffer per
// frame slot, and hands out single use buffers for uploads.
type CommandRecorder struct {
	driver CommandDriver
	queue  *Queue

	VKCommandPool vk.CommandPool
	buffers       [MaxFramesInFlight]*CommandBuffer
}

// NewCommandRecorder creates a resettable pool on the queue's family and
// pre-allocates the per slot buffers.
func NewCommandRecorder(driver CommandDriver, queue *Queue) (*CommandRecorder, error) {
	pool, err := driver.CreateCommandPool(queue.Family,
		vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit))
	if err != nil {
		return nil, errors.Wrap(err, "create command pool")
	}
	c := &CommandRecorder{driver: driver, queue: queue, VKCommandPool: pool}

	cbs, err := driver.AllocateCommandBuffers(pool, MaxFramesInFlight)
	if err != nil {
		driver.DestroyCommandPool(pool)
		return nil, errors.Wrap(err, "allocate frame command buffers")
	}
	for i := range c.buffers {
		c.buffers[i] = &CommandBuffer{driver: driver, VKCommandBuffer: cbs[i]}
	}
	return c, nil
}

// Buffer returns the command buffer owned by a frame slot.
func (c *CommandRecorder) Buffer(slot int) *CommandBuffer {
	return c.buffers[slot]
}

// BeginSingleUse allocates a primary buffer and begins it for one time
// submission.
func (c *CommandRecorder) BeginSingleUse() (*CommandBuffer, error) {
	cbs, err := c.driver.AllocateCommandBuffers(c.VKCommandPool, 1)
	if err != nil {
		return nil, errors.Wrap(err, "allocate single use command buffer")
	}
	cb := &CommandBuffer{driver: c.driver, VKCommandBuffer: cbs[0]}
	if err := cb.BeginOneTime(); err != nil {
		c.free(cb)
		return nil, err
	}
	return cb, nil
}

// EndSingleUse ends cb, submits it without a fence, waits for the queue to
// drain and frees it.
func (c *CommandRecorder) EndSingleUse(cb *CommandBuffer) error {
	defer c.free(cb)
	if err := cb.End(); err != nil {
		return err
	}
	return c.queue.SubmitWaitIdle(cb)
}

// SingleUse records fn into a single use buffer and executes it.
func (c *CommandRecorder) SingleUse(fn func(cb *CommandBuffer)) error {
	cb, err := c.BeginSingleUse()
	if err != nil {
		return err
	}
	fn(cb)
	return c.EndSingleUse(cb)
}

func (c *CommandRecorder) free(cb *CommandBuffer) {
	c.driver.FreeCommandBuffers(c.VKCommandPool, []vk.CommandBuffer{cb.VKCommandBuffer})
}

func (c *CommandRecorder) Destroy() {
	if c.VKCommandPool == vk.NullCommandPool {
		return
	}
	bs := make([]vk.CommandBuffer, 0, MaxFramesInFlight)
	for _, b := range c.buffers {
		if b != nil {
			bs = append(bs, b.VKCommandBuffer)
		}
	}
	if len(bs) > 0 {
		c.driver.FreeCommandBuffers(c.VKCommandPool, bs)
	}
	c.driver.DestroyCommandPool(c.VKCommandPool)
	c.VKCommandPool = vk.NullCommandPool
}
