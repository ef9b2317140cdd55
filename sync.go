package vkr

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// MaxFramesInFlight is the number of frames the CPU may record ahead of the
// GPU.
const MaxFramesInFlight = 2

// SyncSet holds the per slot semaphores and fences. It lives as long as the
// renderer and is never rebuilt on resize.
type SyncSet struct {
	driver SyncDriver

	ImageAvailable [MaxFramesInFlight]vk.Semaphore
	RenderFinished [MaxFramesInFlight]vk.Semaphore
	InFlight       [MaxFramesInFlight]vk.Fence
}

// NewSyncSet creates two binary semaphores and a signaled fence per slot.
func NewSyncSet(driver SyncDriver) (*SyncSet, error) {
	s := &SyncSet{driver: driver}
	for i := 0; i < MaxFramesInFlight; i++ {
		var err error
		if s.ImageAvailable[i], err = driver.CreateSemaphore(); err != nil {
			s.Destroy()
			return nil, errors.Wrap(err, "create image available semaphore")
		}
		if s.RenderFinished[i], err = driver.CreateSemaphore(); err != nil {
			s.Destroy()
			return nil, errors.Wrap(err, "create render finished semaphore")
		}
		// signaled so the first wait on each slot returns immediately
		if s.InFlight[i], err = driver.CreateFence(true); err != nil {
			s.Destroy()
			return nil, errors.Wrap(err, "create in flight fence")
		}
	}
	return s, nil
}

// Wait blocks until the slot's previous submission has retired.
func (s *SyncSet) Wait(slot int) error {
	return s.driver.WaitForFence(s.InFlight[slot], vk.MaxUint64)
}

func (s *SyncSet) Reset(slot int) error {
	return s.driver.ResetFence(s.InFlight[slot])
}

func (s *SyncSet) Destroy() {
	for i := 0; i < MaxFramesInFlight; i++ {
		if s.ImageAvailable[i] != nil {
			s.driver.DestroySemaphore(s.ImageAvailable[i])
			s.ImageAvailable[i] = nil
		}
		if s.RenderFinished[i] != nil {
			s.driver.DestroySemaphore(s.RenderFinished[i])
			s.RenderFinished[i] = nil
		}
		if s.InFlight[i] != nil {
			s.driver.DestroyFence(s.InFlight[i])
			s.InFlight[i] = nil
		}
	}
}
