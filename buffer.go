package vkr

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type BufferInfo struct {
	// Size in bytes; defaults to len(Data).
	Size  uint64
	Data  []byte
	Usage vk.BufferUsageFlags
}

// Buffer is either a device local buffer filled once through a staging
// copy, or, for uniform usage, one persistently mapped host visible buffer
// per frame slot.
type Buffer struct {
	driver Driver

	Usage vk.BufferUsageFlags
	Size  uint64

	uniform bool
	slots   [MaxFramesInFlight]rawBuffer
	mapped  [MaxFramesInFlight][]byte
}

func isUniform(usage vk.BufferUsageFlags) bool {
	return hasFlag(usage, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit))
}

func NewBuffer(ctx *Context, recorder *CommandRecorder, info BufferInfo) (*Buffer, error) {
	size := info.Size
	if size == 0 {
		size = uint64(len(info.Data))
	}
	if size == 0 {
		return nil, resourceError("buffer", errors.New("zero sized buffer"))
	}
	if uint64(len(info.Data)) > size {
		return nil, resourceError("buffer", errors.Wrapf(ErrOutOfRange, "%d bytes of data for a %d byte buffer", len(info.Data), size))
	}

	b := &Buffer{
		driver:  ctx.Driver,
		Usage:   info.Usage,
		Size:    size,
		uniform: isUniform(info.Usage),
	}

	var err error
	if b.uniform {
		err = b.createUniform(info.Data)
	} else {
		err = b.createStaged(recorder, info.Data)
	}
	if err != nil {
		b.Destroy()
		return nil, resourceError("buffer", err)
	}
	return b, nil
}

func (b *Buffer) createUniform(data []byte) error {
	for i := range b.slots {
		raw, err := createRawBuffer(b.driver, vk.DeviceSize(b.Size), b.Usage,
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
		if err != nil {
			return err
		}
		b.slots[i] = raw
		mapped, err := b.driver.MapMemory(raw.VKDeviceMemory, 0, raw.Size)
		if err != nil {
			return errors.Wrap(err, "map uniform buffer")
		}
		b.mapped[i] = mapped
		copy(mapped, data)
	}
	return nil
}

func (b *Buffer) createStaged(recorder *CommandRecorder, data []byte) error {
	contents := data
	if uint64(len(contents)) < b.Size {
		contents = make([]byte, b.Size)
		copy(contents, data)
	}
	staging, err := createStagingBuffer(b.driver, contents)
	if err != nil {
		return errors.Wrap(err, "staging buffer")
	}
	defer staging.destroy(b.driver)

	raw, err := createRawBuffer(b.driver, vk.DeviceSize(b.Size),
		b.Usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return err
	}
	b.slots[0] = raw

	return recorder.SingleUse(func(cb *CommandBuffer) {
		cb.CmdCopyBuffer(staging.VKBuffer, raw.VKBuffer, vk.DeviceSize(b.Size))
	})
}

func (b *Buffer) IsUniform() bool {
	return b.uniform
}

// VKBuffer returns the native buffer used by slot. Non uniform buffers have
// a single buffer shared by every slot.
func (b *Buffer) VKBuffer(slot int) vk.Buffer {
	if !b.uniform {
		return b.slots[0].VKBuffer
	}
	return b.slots[slot].VKBuffer
}

// DSInfo describes the slot's buffer for a descriptor write.
func (b *Buffer) DSInfo(slot int) vk.DescriptorBufferInfo {
	return vk.DescriptorBufferInfo{
		Buffer: b.VKBuffer(slot),
		Offset: 0,
		Range:  vk.DeviceSize(b.Size),
	}
}

// Mapped returns the persistently mapped region of a uniform buffer's slot.
func (b *Buffer) Mapped(slot int) []byte {
	if !b.uniform || slot < 0 || slot >= MaxFramesInFlight {
		return nil
	}
	return b.mapped[slot]
}

// UpdateUniformBuffer copies data into the slot's mapped region. The caller
// must hold the slot, which the renderer guarantees between BeginFrame and
// SubmitFrame.
func (b *Buffer) UpdateUniformBuffer(slot int, data []byte) error {
	if !b.uniform {
		return ErrNotUniformBuffer
	}
	if slot < 0 || slot >= MaxFramesInFlight {
		return errors.Wrapf(ErrOutOfRange, "slot %d", slot)
	}
	if uint64(len(data)) > b.Size {
		return errors.Wrapf(ErrOutOfRange, "%d bytes for a %d byte buffer", len(data), b.Size)
	}
	copy(b.mapped[slot], data)
	return nil
}

func (b *Buffer) Destroy() {
	for i := range b.slots {
		if b.mapped[i] != nil {
			b.driver.UnmapMemory(b.slots[i].VKDeviceMemory)
			b.mapped[i] = nil
		}
		b.slots[i].destroy(b.driver)
	}
}
