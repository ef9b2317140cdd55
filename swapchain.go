package vkr

import (
	"math"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Swapchain owns the presentable images of the surface and one view per
// image. It is rebuilt in place by Recreate.
type Swapchain struct {
	ctx *Context

	VKSwapchain vk.Swapchain
	Format      vk.Format
	ColorSpace  vk.ColorSpace
	PresentMode vk.PresentMode
	Extent      vk.Extent2D

	Images []vk.Image
	Views  []vk.ImageView
}

func chooseSwapSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return formats[0]
}

func chooseSwapPresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, m := range modes {
		if m == vk.PresentModeMailbox {
			return m
		}
	}
	return vk.PresentModeFifo
}

// chooseSwapExtent uses the surface's current extent unless the surface lets
// the application pick, in which case the framebuffer size is clamped to the
// supported range.
func chooseSwapExtent(caps vk.SurfaceCapabilities, fbWidth, fbHeight int) vk.Extent2D {
	if caps.CurrentExtent.Width != math.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clamp(uint32(max(fbWidth, 0)), caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(uint32(max(fbHeight, 0)), caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// chooseImageCount asks for one image more than the minimum, bounded by the
// maximum when the surface has one.
func chooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func NewSwapchain(ctx *Context) (*Swapchain, error) {
	s := &Swapchain{ctx: ctx}
	if err := s.build(); err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

func (s *Swapchain) build() error {
	d := s.ctx.Driver
	surface := s.ctx.Surface

	caps, err := d.SurfaceCapabilities(surface)
	if err != nil {
		return errors.Wrap(err, "surface capabilities")
	}
	formats, err := d.SurfaceFormats(surface)
	if err != nil {
		return errors.Wrap(err, "surface formats")
	}
	if len(formats) == 0 {
		return errors.New("surface reports no formats")
	}
	modes, err := d.SurfacePresentModes(surface)
	if err != nil {
		return errors.Wrap(err, "surface present modes")
	}

	format := chooseSwapSurfaceFormat(formats)
	presentMode := vk.PresentModeFifo
	if s.ctx.Config.PreferMailbox {
		presentMode = chooseSwapPresentMode(modes)
	}
	fbWidth, fbHeight := s.ctx.Window.FramebufferSize()
	extent := chooseSwapExtent(caps, fbWidth, fbHeight)

	info := vk.SwapchainCreateInfo{
		Surface:          surface,
		MinImageCount:    chooseImageCount(caps),
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}

	families := s.ctx.Families
	if families.Graphics != families.Present {
		info.ImageSharingMode = vk.SharingModeConcurrent
		info.QueueFamilyIndexCount = 2
		info.PQueueFamilyIndices = families.Unique()
	} else {
		info.ImageSharingMode = vk.SharingModeExclusive
	}

	sc, err := d.CreateSwapchain(info)
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}
	s.VKSwapchain = sc
	s.Format = format.Format
	s.ColorSpace = format.ColorSpace
	s.PresentMode = presentMode
	s.Extent = extent

	images, err := d.SwapchainImages(sc)
	if err != nil {
		return errors.Wrap(err, "swapchain images")
	}
	s.Images = images
	s.Views = make([]vk.ImageView, 0, len(images))
	for _, img := range images {
		view, err := d.CreateImageView(colorViewInfo(img, s.Format))
		if err != nil {
			return errors.Wrap(err, "swapchain image view")
		}
		s.Views = append(s.Views, view)
	}

	logger.Info("swapchain created",
		"extent", extentString(extent),
		"format", s.Format,
		"present_mode", presentMode,
		"images", len(images))
	return nil
}

// Recreate waits for the device, tears the current chain down and builds a
// new one against the surface's current size.
func (s *Swapchain) Recreate() error {
	if err := s.ctx.Driver.DeviceWaitIdle(); err != nil {
		return errors.Wrap(err, "wait idle before swapchain recreation")
	}
	s.Destroy()
	return s.build()
}

// Destroy releases the views and then the chain. The handles are zeroed.
func (s *Swapchain) Destroy() {
	d := s.ctx.Driver
	for _, v := range s.Views {
		d.DestroyImageView(v)
	}
	s.Views = nil
	s.Images = nil
	if s.VKSwapchain != vk.NullSwapchain {
		d.DestroySwapchain(s.VKSwapchain)
		s.VKSwapchain = vk.NullSwapchain
	}
}

func colorViewInfo(img vk.Image, format vk.Format) vk.ImageViewCreateInfo {
	return imageViewInfo(img, format, vk.ImageAspectFlags(vk.ImageAspectColorBit))
}

func imageViewInfo(img vk.Image, format vk.Format, aspect vk.ImageAspectFlags) vk.ImageViewCreateInfo {
	return vk.ImageViewCreateInfo{
		Image:    img,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
}
