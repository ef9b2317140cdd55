package vkr

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// findMemoryType returns the first memory type allowed by typeBits whose
// property flags include props.
func findMemoryType(mp vk.PhysicalDeviceMemoryProperties, typeBits uint32, props vk.MemoryPropertyFlags) (uint32, error) {
	for i := uint32(0); i < mp.MemoryTypeCount; i++ {
		if typeBits&(1<<i) != 0 && hasFlag(mp.MemoryTypes[i].PropertyFlags, props) {
			return i, nil
		}
	}
	return 0, errors.Wrapf(ErrNoMemoryType, "type bits %#x properties %#x", typeBits, props)
}

// allocateMemory allocates memory satisfying req with the given properties.
func allocateMemory(driver MemoryDriver, req vk.MemoryRequirements, props vk.MemoryPropertyFlags) (vk.DeviceMemory, error) {
	typeIndex, err := findMemoryType(driver.MemoryProperties(), req.MemoryTypeBits, props)
	if err != nil {
		return vk.NullDeviceMemory, err
	}
	return driver.AllocateMemory(req.Size, typeIndex)
}

// rawBuffer is a buffer bound to its own allocation.
type rawBuffer struct {
	VKBuffer       vk.Buffer
	VKDeviceMemory vk.DeviceMemory
	Size           vk.DeviceSize
}

func createRawBuffer(driver MemoryDriver, size vk.DeviceSize, usage vk.BufferUsageFlags, props vk.MemoryPropertyFlags) (rawBuffer, error) {
	b, err := driver.CreateBuffer(size, usage)
	if err != nil {
		return rawBuffer{}, err
	}
	mem, err := allocateMemory(driver, driver.BufferMemoryRequirements(b), props)
	if err != nil {
		driver.DestroyBuffer(b)
		return rawBuffer{}, err
	}
	if err := driver.BindBufferMemory(b, mem); err != nil {
		driver.DestroyBuffer(b)
		driver.FreeMemory(mem)
		return rawBuffer{}, err
	}
	return rawBuffer{VKBuffer: b, VKDeviceMemory: mem, Size: size}, nil
}

func (r *rawBuffer) destroy(driver MemoryDriver) {
	if r.VKBuffer != vk.NullBuffer {
		driver.DestroyBuffer(r.VKBuffer)
		r.VKBuffer = vk.NullBuffer
	}
	if r.VKDeviceMemory != vk.NullDeviceMemory {
		driver.FreeMemory(r.VKDeviceMemory)
		r.VKDeviceMemory = vk.NullDeviceMemory
	}
}

// createStagingBuffer returns a host visible transfer source filled with
// data.
func createStagingBuffer(driver MemoryDriver, data []byte) (rawBuffer, error) {
	staging, err := createRawBuffer(driver, vk.DeviceSize(len(data)),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return rawBuffer{}, err
	}
	mapped, err := driver.MapMemory(staging.VKDeviceMemory, 0, staging.Size)
	if err != nil {
		staging.destroy(driver)
		return rawBuffer{}, err
	}
	copy(mapped, data)
	driver.UnmapMemory(staging.VKDeviceMemory)
	return staging, nil
}
