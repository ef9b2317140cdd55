package vkr

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Context owns the instance, the surface, the logical device and its
// queues. It is created first and destroyed last.
type Context struct {
	Config Config
	Window Window

	Instance       *Instance
	Surface        vk.Surface
	PhysicalDevice *PhysicalDevice
	VKDevice       vk.Device
	Families       QueueFamilyIndices

	GraphicsQueue *Queue
	PresentQueue  *Queue

	Driver Driver

	// Anisotropy is enabled on the device; MaxAnisotropy is the device limit.
	Anisotropy    bool
	MaxAnisotropy float32
}

// NewContext loads Vulkan through the window's loader hook and brings up an
// instance, a surface and a logical device on the first suitable GPU.
func NewContext(cfg Config, window Window) (*Context, error) {
	vk.SetGetInstanceProcAddr(window.InstanceProcAddr())
	if err := vk.Init(); err != nil {
		return nil, initError("loader", err)
	}

	c := &Context{Config: cfg, Window: window}

	app := &App{
		Name:       cfg.AppName,
		EngineName: "vkr",
		Version:    Version{Major: 1},
	}
	for _, ext := range window.RequiredInstanceExtensions() {
		app.EnableExtension(ext)
	}
	if cfg.Validation {
		if err := app.EnableDebugging(); err != nil {
			return nil, initError("validation", err)
		}
	}

	instance, err := app.CreateInstance()
	if err != nil {
		return nil, initError("instance", err)
	}
	c.Instance = instance

	if cfg.Validation {
		if err := instance.InstallDebugCallback(); err != nil {
			logger.Warn("debug report callback unavailable", "err", err)
		}
	}

	c.Surface, err = window.CreateSurface(instance.VKInstance)
	if err != nil {
		c.Destroy()
		return nil, initError("surface", err)
	}

	if err := c.pickPhysicalDevice(); err != nil {
		c.Destroy()
		return nil, initError("physical device", err)
	}
	if err := c.createLogicalDevice(); err != nil {
		c.Destroy()
		return nil, initError("logical device", err)
	}

	logger.Info("device ready",
		"device", c.PhysicalDevice.DeviceName,
		"graphics_family", c.Families.Graphics,
		"present_family", c.Families.Present,
		"anisotropy", c.Anisotropy)
	return c, nil
}

func (c *Context) pickPhysicalDevice() error {
	devices, err := c.Instance.PhysicalDevices()
	if err != nil {
		return errors.Wrap(err, "enumerate physical devices")
	}
	for _, pd := range devices {
		indices, ok := pd.Suitable(c.Surface)
		logger.Debug("physical device", "device", pd.DeviceName, "suitable", ok)
		if ok {
			c.PhysicalDevice = pd
			c.Families = indices
			return nil
		}
	}
	return errors.Wrapf(ErrNoSuitableDevice, "%d devices checked", len(devices))
}

func (c *Context) createLogicalDevice() error {
	families := c.Families.Unique()
	queueInfos := make([]vk.DeviceQueueCreateInfo, len(families))
	for i, f := range families {
		queueInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: f,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	var features vk.PhysicalDeviceFeatures
	if c.PhysicalDevice.Features().SamplerAnisotropy == vk.True {
		features.SamplerAnisotropy = vk.True
		c.Anisotropy = true
		c.MaxAnisotropy = c.PhysicalDevice.Limits().MaxSamplerAnisotropy
	}

	extensions := safeStrings(DeviceExtensions)
	info := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{features},
	}
	if c.Config.Validation {
		layers := safeStrings([]string{validationLayer})
		info.EnabledLayerCount = uint32(len(layers))
		info.PpEnabledLayerNames = layers
	}

	var device vk.Device
	if err := NewError(vk.CreateDevice(c.PhysicalDevice.VKPhysicalDevice, &info, nil, &device)); err != nil {
		return err
	}
	c.VKDevice = device
	c.Driver = newVulkanDriver(device, c.PhysicalDevice.VKPhysicalDevice)
	c.GraphicsQueue = c.queue(uint32(c.Families.Graphics))
	c.PresentQueue = c.queue(uint32(c.Families.Present))
	return nil
}

func (c *Context) queue(family uint32) *Queue {
	var q vk.Queue
	vk.GetDeviceQueue(c.VKDevice, family, 0, &q)
	return &Queue{driver: c.Driver, Family: family, VKQueue: q}
}

// WaitIdle blocks until the device has finished all submitted work.
func (c *Context) WaitIdle() error {
	return c.Driver.DeviceWaitIdle()
}

func (c *Context) String() string {
	return fmt.Sprintf("{ PhysicalDevice: %s }", c.PhysicalDevice)
}

// Destroy tears down the device, the debug callback, the surface and the
// instance, in that order.
func (c *Context) Destroy() {
	if c.VKDevice != nil {
		vk.DestroyDevice(c.VKDevice, nil)
		c.VKDevice = nil
	}
	if c.Instance == nil {
		return
	}
	c.Instance.DestroyDebugCallback()
	if c.Surface != vk.NullSurface {
		vk.DestroySurface(c.Instance.VKInstance, c.Surface, nil)
		c.Surface = vk.NullSurface
	}
	c.Instance.Destroy()
	c.Instance = nil
}
