package vkr

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// DescriptorBinding is one binding of a set layout.
type DescriptorBinding struct {
	Binding uint32
	Type    vk.DescriptorType
	Stages  vk.ShaderStageFlags
	// Count defaults to 1. Only bindless sets declare arrays.
	Count uint32
}

func (b DescriptorBinding) count() uint32 {
	if b.Count == 0 {
		return 1
	}
	return b.Count
}

// DescriptorSetInfo describes a set and the resources written into it.
// Buffers and Textures are indexed like Bindings; the entry for a binding
// is whichever of the two is non nil.
//
// When Bindless is set the set is a single combined image sampler array of
// MaxTextures elements at binding 0, every element initialized to Default.
type DescriptorSetInfo struct {
	Bindings []DescriptorBinding
	Buffers  []*Buffer
	Textures []*Texture

	Bindless    bool
	MaxTextures uint32
	Default     *Texture
}

// DescriptorSet holds a pool, a layout and one set per frame slot.
type DescriptorSet struct {
	driver DescriptorDriver

	VKDescriptorPool      vk.DescriptorPool
	VKDescriptorSetLayout vk.DescriptorSetLayout
	Sets                  [MaxFramesInFlight]vk.DescriptorSet

	bindless bool
	capacity uint32
}

func bindlessBindings(maxTextures uint32) []DescriptorBinding {
	return []DescriptorBinding{{
		Binding: 0,
		Type:    vk.DescriptorTypeCombinedImageSampler,
		Stages:  vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit),
		Count:   maxTextures,
	}}
}

func NewDescriptorSet(ctx *Context, info DescriptorSetInfo) (*DescriptorSet, error) {
	d := &DescriptorSet{driver: ctx.Driver, bindless: info.Bindless}

	bindings := info.Bindings
	if info.Bindless {
		if info.MaxTextures == 0 {
			return nil, resourceError("descriptor set", errors.Wrap(ErrOutOfRange, "bindless set without textures"))
		}
		if info.Default == nil {
			return nil, resourceError("descriptor set", errors.New("bindless set needs a default texture"))
		}
		bindings = bindlessBindings(info.MaxTextures)
		d.capacity = info.MaxTextures
	} else {
		for _, b := range bindings {
			if b.count() > 1 {
				return nil, resourceError("descriptor set",
					errors.Wrapf(ErrOutOfRange, "binding %d declares %d descriptors", b.Binding, b.Count))
			}
		}
	}

	if err := d.create(bindings); err != nil {
		d.Destroy()
		return nil, resourceError("descriptor set", err)
	}

	if info.Bindless {
		for i := uint32(0); i < info.MaxTextures; i++ {
			d.writeTexture(i, info.Default)
		}
		return d, nil
	}

	if err := d.writeResources(info); err != nil {
		d.Destroy()
		return nil, resourceError("descriptor set", err)
	}
	return d, nil
}

func (d *DescriptorSet) create(bindings []DescriptorBinding) error {
	layoutBindings := make([]vk.DescriptorSetLayoutBinding, len(bindings))
	sizes := map[vk.DescriptorType]uint32{}
	types := []vk.DescriptorType{}
	for i, b := range bindings {
		layoutBindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  b.Type,
			DescriptorCount: b.count(),
			StageFlags:      b.Stages,
		}
		if _, ok := sizes[b.Type]; !ok {
			types = append(types, b.Type)
		}
		sizes[b.Type] += b.count()
	}

	layout, err := d.driver.CreateDescriptorSetLayout(vk.DescriptorSetLayoutCreateInfo{
		BindingCount: uint32(len(layoutBindings)),
		PBindings:    layoutBindings,
	})
	if err != nil {
		return errors.Wrap(err, "layout")
	}
	d.VKDescriptorSetLayout = layout

	poolSizes := make([]vk.DescriptorPoolSize, 0, len(types))
	for _, t := range types {
		poolSizes = append(poolSizes, vk.DescriptorPoolSize{
			Type:            t,
			DescriptorCount: sizes[t] * MaxFramesInFlight,
		})
	}
	pool, err := d.driver.CreateDescriptorPool(vk.DescriptorPoolCreateInfo{
		MaxSets:       MaxFramesInFlight,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	})
	if err != nil {
		return errors.Wrap(err, "pool")
	}
	d.VKDescriptorPool = pool

	for i := range d.Sets {
		set, err := d.driver.AllocateDescriptorSet(pool, layout)
		if err != nil {
			return errors.Wrap(err, "allocate")
		}
		d.Sets[i] = set
	}
	return nil
}

func (d *DescriptorSet) writeResources(info DescriptorSetInfo) error {
	for slot := range d.Sets {
		writes := make([]vk.WriteDescriptorSet, 0, len(info.Bindings))
		for i, b := range info.Bindings {
			w := vk.WriteDescriptorSet{
				SType:           vk.StructureTypeWriteDescriptorSet,
				DstSet:          d.Sets[slot],
				DstBinding:      b.Binding,
				DstArrayElement: 0,
				DescriptorCount: 1,
				DescriptorType:  b.Type,
			}
			switch {
			case i < len(info.Buffers) && info.Buffers[i] != nil:
				w.PBufferInfo = []vk.DescriptorBufferInfo{info.Buffers[i].DSInfo(slot)}
			case i < len(info.Textures) && info.Textures[i] != nil:
				w.PImageInfo = []vk.DescriptorImageInfo{imageInfo(info.Textures[i])}
			default:
				return errors.Errorf("binding %d has no resource", b.Binding)
			}
			writes = append(writes, w)
		}
		d.driver.UpdateDescriptorSets(writes)
	}
	return nil
}

func imageInfo(t *Texture) vk.DescriptorImageInfo {
	return vk.DescriptorImageInfo{
		Sampler:     t.VKSampler,
		ImageView:   t.VKImageView,
		ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
	}
}

// Set returns the set used by a frame slot.
func (d *DescriptorSet) Set(slot int) vk.DescriptorSet {
	return d.Sets[slot]
}

// WriteTexture points element index of a bindless array at tex in every
// slot's set. The sets must not be in use by the GPU.
func (d *DescriptorSet) WriteTexture(index uint32, tex *Texture) error {
	if !d.bindless {
		return errors.New("not a bindless descriptor set")
	}
	if index >= d.capacity {
		return errors.Wrapf(ErrOutOfRange, "texture index %d of %d", index, d.capacity)
	}
	d.writeTexture(index, tex)
	return nil
}

func (d *DescriptorSet) writeTexture(index uint32, tex *Texture) {
	writes := make([]vk.WriteDescriptorSet, len(d.Sets))
	for slot := range d.Sets {
		writes[slot] = vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          d.Sets[slot],
			DstBinding:      0,
			DstArrayElement: index,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			PImageInfo:      []vk.DescriptorImageInfo{imageInfo(tex)},
		}
	}
	d.driver.UpdateDescriptorSets(writes)
}

// Destroy frees the pool, which releases its sets, and the layout.
func (d *DescriptorSet) Destroy() {
	if d.VKDescriptorPool != nil {
		d.driver.DestroyDescriptorPool(d.VKDescriptorPool)
		d.VKDescriptorPool = nil
	}
	if d.VKDescriptorSetLayout != nil {
		d.driver.DestroyDescriptorSetLayout(d.VKDescriptorSetLayout)
		d.VKDescriptorSetLayout = nil
	}
	for i := range d.Sets {
		d.Sets[i] = nil
	}
}
