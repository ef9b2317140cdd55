package vkr

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ExtentDependent is a resource rebuilt after every swapchain recreation.
type ExtentDependent interface {
	Recreate(extent vk.Extent2D) error
}

// RenderPass is the single subpass pass every frame renders into. Layout
// transitions in and out of attachment layouts are recorded explicitly by
// the frame, so attachments stay in their attachment layouts.
type RenderPass struct {
	driver PipelineDriver

	VKRenderPass vk.RenderPass
	ColorFormat  vk.Format
	// DepthFormat is FormatUndefined when the pass has no depth attachment.
	DepthFormat vk.Format
}

func NewRenderPass(ctx *Context, colorFormat, depthFormat vk.Format) (*RenderPass, error) {
	attachments := []vk.AttachmentDescription{{
		Format:         colorFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutColorAttachmentOptimal,
		FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
	}}

	colorAttachments := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorAttachments,
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}

	if depthFormat != vk.FormatUndefined {
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         depthFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutDepthStencilAttachmentOptimal,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		})
		subpass.PDepthStencilAttachment = &vk.AttachmentReference{
			Attachment: 1,
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
		dependency.SrcStageMask |= vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit)
		dependency.SrcAccessMask |= vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
		dependency.DstStageMask |= vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit)
		dependency.DstAccessMask |= vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
	}

	rp, err := ctx.Driver.CreateRenderPass(vk.RenderPassCreateInfo{
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	})
	if err != nil {
		return nil, resourceError("render pass", err)
	}
	return &RenderPass{
		driver:       ctx.Driver,
		VKRenderPass: rp,
		ColorFormat:  colorFormat,
		DepthFormat:  depthFormat,
	}, nil
}

// ClearValues returns the clear values matching the pass attachments.
func (r *RenderPass) ClearValues(clear ClearColor) []vk.ClearValue {
	n := 1
	if r.DepthFormat != vk.FormatUndefined {
		n = 2
	}
	values := make([]vk.ClearValue, n)
	values[0].SetColor(clear[:])
	if n == 2 {
		values[1].SetDepthStencil(1, 0)
	}
	return values
}

func (r *RenderPass) Destroy() {
	if r.VKRenderPass != vk.NullRenderPass {
		r.driver.DestroyRenderPass(r.VKRenderPass)
		r.VKRenderPass = vk.NullRenderPass
	}
}

// Framebuffers holds one framebuffer per swapchain image, sharing the depth
// texture when there is one.
type Framebuffers struct {
	driver     PipelineDriver
	renderPass *RenderPass
	swapchain  *Swapchain
	depth      *Texture

	VKFramebuffers []vk.Framebuffer
}

func NewFramebuffers(ctx *Context, renderPass *RenderPass, swapchain *Swapchain, depth *Texture) (*Framebuffers, error) {
	f := &Framebuffers{
		driver:     ctx.Driver,
		renderPass: renderPass,
		swapchain:  swapchain,
		depth:      depth,
	}
	if err := f.Recreate(swapchain.Extent); err != nil {
		return nil, err
	}
	return f, nil
}

// Recreate rebuilds the framebuffers against the current swapchain views.
func (f *Framebuffers) Recreate(extent vk.Extent2D) error {
	f.Destroy()
	f.VKFramebuffers = make([]vk.Framebuffer, 0, len(f.swapchain.Views))
	for _, view := range f.swapchain.Views {
		attachments := []vk.ImageView{view}
		if f.depth != nil {
			attachments = append(attachments, f.depth.VKImageView)
		}
		fb, err := f.driver.CreateFramebuffer(vk.FramebufferCreateInfo{
			RenderPass:      f.renderPass.VKRenderPass,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           extent.Width,
			Height:          extent.Height,
			Layers:          1,
		})
		if err != nil {
			f.Destroy()
			return resourceError("framebuffer", errors.Wrapf(err, "extent %s", extentString(extent)))
		}
		f.VKFramebuffers = append(f.VKFramebuffers, fb)
	}
	return nil
}

func (f *Framebuffers) Destroy() {
	for _, fb := range f.VKFramebuffers {
		f.driver.DestroyFramebuffer(fb)
	}
	f.VKFramebuffers = nil
}
