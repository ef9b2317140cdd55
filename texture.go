package vkr

import (
	"image"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type TexturePurpose int

const (
	TextureColor TexturePurpose = iota
	TextureDepth
)

// depthFormats are probed in order for depth attachment support.
var depthFormats = []vk.Format{
	vk.FormatD32Sfloat,
	vk.FormatD32SfloatS8Uint,
	vk.FormatD24UnormS8Uint,
}

// Texture is a device local image with its view. Color textures carry a
// sampler; depth textures do not.
type Texture struct {
	driver Driver

	Purpose        TexturePurpose
	Format         vk.Format
	Extent         vk.Extent2D
	VKImage        vk.Image
	VKImageView    vk.ImageView
	VKSampler      vk.Sampler
	VKDeviceMemory vk.DeviceMemory

	slot *Allocation
}

// Index returns the texture's element in the global texture array, or -1
// when it has none.
func (t *Texture) Index() int {
	if t.slot == nil {
		return -1
	}
	return int(t.slot.Offset)
}

// NewColorTexture uploads pixels into an sRGB sampled image through a
// staging buffer and a single use command buffer.
func NewColorTexture(ctx *Context, recorder *CommandRecorder, pixels *image.RGBA) (*Texture, error) {
	if pixels == nil || pixels.Bounds().Empty() {
		return nil, resourceError("texture", errors.New("empty image"))
	}
	pixels = toRGBA(pixels)
	b := pixels.Bounds()
	t := &Texture{
		driver:  ctx.Driver,
		Purpose: TextureColor,
		Format:  vk.FormatR8g8b8a8Srgb,
		Extent:  vk.Extent2D{Width: uint32(b.Dx()), Height: uint32(b.Dy())},
	}
	if err := t.upload(recorder, pixels.Pix); err != nil {
		t.Destroy()
		return nil, resourceError("texture", err)
	}
	if err := t.createSampler(ctx); err != nil {
		t.Destroy()
		return nil, resourceError("texture", err)
	}
	return t, nil
}

func (t *Texture) upload(recorder *CommandRecorder, pix []byte) error {
	staging, err := createStagingBuffer(t.driver, pix)
	if err != nil {
		return errors.Wrap(err, "staging buffer")
	}
	defer staging.destroy(t.driver)

	err = t.createImage(vk.ImageUsageFlags(vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit),
		vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return err
	}

	return recorder.SingleUse(func(cb *CommandBuffer) {
		aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
		cb.CmdTransitionImage(t.VKImage, aspect, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
		cb.CmdCopyBufferToImage(staging.VKBuffer, t.VKImage, t.Extent.Width, t.Extent.Height)
		cb.CmdTransitionImage(t.VKImage, aspect, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	})
}

func (t *Texture) createSampler(ctx *Context) error {
	info := vk.SamplerCreateInfo{
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
	}
	if ctx.Anisotropy {
		info.AnisotropyEnable = vk.True
		info.MaxAnisotropy = ctx.MaxAnisotropy
	}
	s, err := t.driver.CreateSampler(info)
	if err != nil {
		return errors.Wrap(err, "sampler")
	}
	t.VKSampler = s
	return nil
}

// findDepthFormat returns the first depth format usable as an optimally
// tiled depth attachment.
func findDepthFormat(driver MemoryDriver) (vk.Format, error) {
	for _, f := range depthFormats {
		props := driver.FormatProperties(f)
		if hasFlag(props.OptimalTilingFeatures, vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)) {
			return f, nil
		}
	}
	return vk.FormatUndefined, ErrNoDepthFormat
}

// NewDepthTexture creates a depth attachment of the given size.
func NewDepthTexture(ctx *Context, extent vk.Extent2D) (*Texture, error) {
	format, err := findDepthFormat(ctx.Driver)
	if err != nil {
		return nil, resourceError("depth texture", err)
	}
	t := &Texture{
		driver:  ctx.Driver,
		Purpose: TextureDepth,
		Format:  format,
	}
	if err := t.Recreate(extent); err != nil {
		return nil, err
	}
	return t, nil
}

// Recreate rebuilds a depth texture at a new size.
func (t *Texture) Recreate(extent vk.Extent2D) error {
	if t.Purpose != TextureDepth {
		return nil
	}
	t.destroyImage()
	t.Extent = extent
	err := t.createImage(vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit), depthAspect(t.Format))
	if err != nil {
		t.destroyImage()
		return resourceError("depth texture", err)
	}
	logger.Debug("depth texture", "extent", extentString(extent), "format", t.Format)
	return nil
}

func (t *Texture) createImage(usage vk.ImageUsageFlags, aspect vk.ImageAspectFlags) error {
	img, err := t.driver.CreateImage(vk.ImageCreateInfo{
		ImageType: vk.ImageType2d,
		Format:    t.Format,
		Extent: vk.Extent3D{
			Width:  t.Extent.Width,
			Height: t.Extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	})
	if err != nil {
		return errors.Wrap(err, "image")
	}
	t.VKImage = img

	mem, err := allocateMemory(t.driver, t.driver.ImageMemoryRequirements(img),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return errors.Wrap(err, "image memory")
	}
	t.VKDeviceMemory = mem
	if err := t.driver.BindImageMemory(img, mem); err != nil {
		return errors.Wrap(err, "bind image memory")
	}

	view, err := t.driver.CreateImageView(imageViewInfo(img, t.Format, aspect))
	if err != nil {
		return errors.Wrap(err, "image view")
	}
	t.VKImageView = view
	return nil
}

func (t *Texture) destroyImage() {
	if t.VKImageView != vk.NullImageView {
		t.driver.DestroyImageView(t.VKImageView)
		t.VKImageView = vk.NullImageView
	}
	if t.VKImage != vk.NullImage {
		t.driver.DestroyImage(t.VKImage)
		t.VKImage = vk.NullImage
	}
	if t.VKDeviceMemory != vk.NullDeviceMemory {
		t.driver.FreeMemory(t.VKDeviceMemory)
		t.VKDeviceMemory = vk.NullDeviceMemory
	}
}

func (t *Texture) Destroy() {
	if t.VKSampler != nil {
		t.driver.DestroySampler(t.VKSampler)
		t.VKSampler = nil
	}
	t.destroyImage()
}
