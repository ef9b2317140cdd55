package vkr

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

type QueueFamilySlice []*QueueFamily

func (ql QueueFamilySlice) Filter(f func(q *QueueFamily) bool) QueueFamilySlice {
	ret := make([]*QueueFamily, 0)
	for _, q := range ql {
		if f(q) {
			ret = append(ret, q)
		}
	}
	return ret
}

func (ql QueueFamilySlice) FilterGraphics() QueueFamilySlice {
	return ql.Filter(func(q *QueueFamily) bool {
		return q.IsGraphics()
	})
}

type QueueFamily struct {
	Index                   int
	PhysicalDevice          *PhysicalDevice
	VKQueueFamilyProperties vk.QueueFamilyProperties
}

func (q *QueueFamily) IsGraphics() bool {
	return hasFlag(q.VKQueueFamilyProperties.QueueFlags, vk.QueueFlags(vk.QueueGraphicsBit))
}

func (q *QueueFamily) IsTransfer() bool {
	return hasFlag(q.VKQueueFamilyProperties.QueueFlags, vk.QueueFlags(vk.QueueTransferBit))
}

func (q *QueueFamily) IsCompute() bool {
	return hasFlag(q.VKQueueFamilyProperties.QueueFlags, vk.QueueFlags(vk.QueueComputeBit))
}

func (q *QueueFamily) SupportsPresent(surface vk.Surface) bool {
	var supportsPresent vk.Bool32
	vk.GetPhysicalDeviceSurfaceSupport(q.PhysicalDevice.VKPhysicalDevice, uint32(q.Index), surface, &supportsPresent)
	return supportsPresent == vk.True
}

func (q *QueueFamily) String() string {
	return fmt.Sprintf("{ Index: %d Compute: %v Graphics: %v Transfer: %v }", q.Index, q.IsCompute(), q.IsGraphics(), q.IsTransfer())
}

// QueueFamilyIndices records the families chosen for graphics and
// presentation. -1 means not found.
type QueueFamilyIndices struct {
	Graphics int
	Present  int
}

func (q QueueFamilyIndices) IsComplete() bool {
	return q.Graphics >= 0 && q.Present >= 0
}

// Unique returns the distinct family indices, graphics first.
func (q QueueFamilyIndices) Unique() []uint32 {
	if q.Graphics == q.Present {
		return []uint32{uint32(q.Graphics)}
	}
	return []uint32{uint32(q.Graphics), uint32(q.Present)}
}

// findQueueFamilies picks the first graphics family and the first family
// that can present, preferring a single family that does both.
func findQueueFamilies(families QueueFamilySlice, canPresent func(q *QueueFamily) bool) QueueFamilyIndices {
	indices := QueueFamilyIndices{Graphics: -1, Present: -1}
	for _, q := range families {
		graphics, present := q.IsGraphics(), canPresent(q)
		if graphics && present {
			return QueueFamilyIndices{Graphics: q.Index, Present: q.Index}
		}
		if graphics && indices.Graphics < 0 {
			indices.Graphics = q.Index
		}
		if present && indices.Present < 0 {
			indices.Present = q.Index
		}
	}
	return indices
}
