package vkr

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Window is everything the renderer needs from the windowing system.
type Window interface {
	FramebufferSize() (width, height int)
	ShouldClose() bool
	PollEvents()
	// WaitEvents blocks until at least one event arrives.
	WaitEvents()

	// Resized reports whether the framebuffer changed size since the last
	// ClearResized.
	Resized() bool
	ClearResized()

	// Time returns seconds since the window system started.
	Time() float64

	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
	InstanceProcAddr() unsafe.Pointer
}
