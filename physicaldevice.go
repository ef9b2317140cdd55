package vkr

import (
	vk "github.com/vulkan-go/vulkan"
)

// DeviceExtensions are required of every physical device.
var DeviceExtensions = []string{
	"VK_KHR_swapchain",
}

type PhysicalDevice struct {
	DeviceName                 string
	VKPhysicalDevice           vk.PhysicalDevice
	VKPhysicalDeviceProperties vk.PhysicalDeviceProperties
}

func (p *PhysicalDevice) String() string {
	return p.DeviceName
}

func (p *PhysicalDevice) QueueFamilies() QueueFamilySlice {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &count, nil)
	if count == 0 {
		return nil
	}

	queues := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &count, queues)

	ret := make(QueueFamilySlice, count)
	for i, queue := range queues {
		ret[i] = &QueueFamily{Index: i, PhysicalDevice: p, VKQueueFamilyProperties: queue}
		ret[i].VKQueueFamilyProperties.Deref()
	}
	return ret
}

func (p *PhysicalDevice) Features() vk.PhysicalDeviceFeatures {
	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(p.VKPhysicalDevice, &features)
	features.Deref()
	return features
}

// Limits returns the dereferenced device limits.
func (p *PhysicalDevice) Limits() vk.PhysicalDeviceLimits {
	limits := p.VKPhysicalDeviceProperties.Limits
	limits.Deref()
	return limits
}

func (p *PhysicalDevice) MemoryProperties() vk.PhysicalDeviceMemoryProperties {
	var mp vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(p.VKPhysicalDevice, &mp)
	mp.Deref()
	for i := uint32(0); i < mp.MemoryTypeCount; i++ {
		mp.MemoryTypes[i].Deref()
	}
	for i := uint32(0); i < mp.MemoryHeapCount; i++ {
		mp.MemoryHeaps[i].Deref()
	}
	return mp
}

func (p *PhysicalDevice) SupportedExtensions() ([]string, error) {
	var count uint32
	err := NewError(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, nil))
	if err != nil {
		return nil, err
	}

	ext := make([]vk.ExtensionProperties, count)
	err = NewError(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, ext))
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, count)
	for _, e := range ext[:count] {
		e.Deref()
		names = append(names, vk.ToString(e.ExtensionName[:]))
	}
	return names, nil
}

func surfaceFormats(pd vk.PhysicalDevice, surface vk.Surface) ([]vk.SurfaceFormat, error) {
	var count uint32
	err := NewError(vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &count, nil))
	if err != nil {
		return nil, err
	}

	f := make([]vk.SurfaceFormat, count)
	err = NewError(vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &count, f))
	if err != nil {
		return nil, err
	}
	f = f[:count]
	for i := range f {
		f[i].Deref()
	}
	return f, nil
}

func surfacePresentModes(pd vk.PhysicalDevice, surface vk.Surface) ([]vk.PresentMode, error) {
	var count uint32
	err := NewError(vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &count, nil))
	if err != nil {
		return nil, err
	}

	m := make([]vk.PresentMode, count)
	err = NewError(vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &count, m))
	if err != nil {
		return nil, err
	}
	return m[:count], nil
}

// Suitable reports the queue families to use on this device for surface,
// and whether the device can drive the renderer at all.
func (p *PhysicalDevice) Suitable(surface vk.Surface) (QueueFamilyIndices, bool) {
	indices := findQueueFamilies(p.QueueFamilies(), func(q *QueueFamily) bool {
		return q.SupportsPresent(surface)
	})
	if !indices.IsComplete() {
		return indices, false
	}

	exts, err := p.SupportedExtensions()
	if err != nil || len(missingNames(exts, DeviceExtensions)) > 0 {
		return indices, false
	}

	formats, err := surfaceFormats(p.VKPhysicalDevice, surface)
	if err != nil || len(formats) == 0 {
		return indices, false
	}
	modes, err := surfacePresentModes(p.VKPhysicalDevice, surface)
	if err != nil || len(modes) == 0 {
		return indices, false
	}
	return indices, true
}
