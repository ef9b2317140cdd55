package vkr

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// GLFWWindow is a Window backed by GLFW. GLFW calls must happen on the main
// thread; callers are expected to runtime.LockOSThread in init.
type GLFWWindow struct {
	*glfw.Window
	resized bool
}

// NewGLFWWindow initializes GLFW and opens a window without a client API,
// on the primary monitor when cfg.Fullscreen is set. Escape closes it.
func NewGLFWWindow(cfg Config) (*GLFWWindow, error) {
	if err := glfw.Init(); err != nil {
		return nil, initError("glfw", err)
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, initError("glfw", errors.New("vulkan is not supported by the window system"))
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	width, height := cfg.Width, cfg.Height
	var monitor *glfw.Monitor
	if cfg.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
		if mode := monitor.GetVideoMode(); mode != nil {
			width, height = mode.Width, mode.Height
		}
	}

	win, err := glfw.CreateWindow(width, height, cfg.AppName, monitor, nil)
	if err != nil {
		glfw.Terminate()
		return nil, initError("glfw window", err)
	}

	w := &GLFWWindow{Window: win}
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, _, _ int) {
		w.resized = true
	})
	win.SetKeyCallback(func(win *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			win.SetShouldClose(true)
		}
	})
	return w, nil
}

func (w *GLFWWindow) FramebufferSize() (int, int) {
	return w.Window.GetFramebufferSize()
}

func (w *GLFWWindow) PollEvents() {
	glfw.PollEvents()
}

func (w *GLFWWindow) WaitEvents() {
	glfw.WaitEvents()
}

func (w *GLFWWindow) Resized() bool {
	return w.resized
}

func (w *GLFWWindow) ClearResized() {
	w.resized = false
}

func (w *GLFWWindow) Time() float64 {
	return glfw.GetTime()
}

func (w *GLFWWindow) RequiredInstanceExtensions() []string {
	return w.Window.GetRequiredInstanceExtensions()
}

func (w *GLFWWindow) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	ptr, err := w.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, err
	}
	return vk.SurfaceFromPointer(ptr), nil
}

func (w *GLFWWindow) InstanceProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

// Destroy closes the window and terminates GLFW.
func (w *GLFWWindow) Destroy() {
	w.Window.Destroy()
	glfw.Terminate()
}
