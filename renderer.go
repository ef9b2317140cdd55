package vkr

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// DrawFunc records one frame. It runs between BeginFrame and EndFrame.
type DrawFunc func(width, height uint32, aspect, deltaSeconds float32)

// Renderer wires a Context, a Swapchain and the per frame machinery into a
// run loop and hands out resources bound to them.
type Renderer struct {
	*Render

	Context       *Context
	Swapchain     *Swapchain
	Sync          *SyncSet
	Recorder      *CommandRecorder
	RenderPass    *RenderPass
	Framebuffers  *Framebuffers
	DepthTexture  *Texture
	PipelineCache vk.PipelineCache

	// Textures is the global texture array bound at set 0 of every
	// pipeline made by CreatePipeline.
	Textures       *DescriptorSet
	defaultTexture *Texture
	textureSlots   *LinearAllocator

	extentDependent []ExtentDependent
	lastTime        float64
}

// NewRenderer brings up a Context on window and everything needed to draw
// into it.
func NewRenderer(cfg Config, window Window) (*Renderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctx, err := NewContext(cfg, window)
	if err != nil {
		return nil, err
	}
	r, err := newRenderer(ctx)
	if err != nil {
		ctx.Destroy()
		return nil, err
	}
	return r, nil
}

func newRenderer(ctx *Context) (_ *Renderer, err error) {
	r := &Renderer{
		Context:      ctx,
		textureSlots: &LinearAllocator{Size: uint64(ctx.Config.MaxTextures)},
	}
	defer func() {
		if err != nil {
			r.destroy(false)
		}
	}()

	if r.Swapchain, err = NewSwapchain(ctx); err != nil {
		return nil, initError("swapchain", err)
	}
	if r.Sync, err = NewSyncSet(ctx.Driver); err != nil {
		return nil, initError("sync objects", err)
	}
	if r.Recorder, err = NewCommandRecorder(ctx.Driver, ctx.GraphicsQueue); err != nil {
		return nil, initError("command recorder", err)
	}
	if r.PipelineCache, err = ctx.Driver.CreatePipelineCache(); err != nil {
		return nil, initError("pipeline cache", err)
	}

	depthFormat := vk.FormatUndefined
	if ctx.Config.DepthBuffer {
		if r.DepthTexture, err = NewDepthTexture(ctx, r.Swapchain.Extent); err != nil {
			return nil, initError("depth texture", err)
		}
		depthFormat = r.DepthTexture.Format
		r.RegisterExtentDependent(r.DepthTexture)
	}
	if r.RenderPass, err = NewRenderPass(ctx, r.Swapchain.Format, depthFormat); err != nil {
		return nil, initError("render pass", err)
	}
	if r.Framebuffers, err = NewFramebuffers(ctx, r.RenderPass, r.Swapchain, r.DepthTexture); err != nil {
		return nil, initError("framebuffers", err)
	}
	r.RegisterExtentDependent(r.Framebuffers)

	if err = r.createTextureArray(); err != nil {
		return nil, initError("texture array", err)
	}

	r.Render = &Render{
		driver:       ctx.Driver,
		window:       ctx.Window,
		sync:         r.Sync,
		recorder:     r.Recorder,
		graphics:     ctx.GraphicsQueue,
		present:      ctx.PresentQueue,
		swapchain:    r.Swapchain,
		renderPass:   r.RenderPass,
		framebuffers: r.Framebuffers,
		depth:        r.DepthTexture,
		global:       r.Textures,
		recreate:     r.recreate,
	}
	return r, nil
}

// createTextureArray makes the 1x1 white texture that fills every element
// of the global array and takes slot 0.
func (r *Renderer) createTextureArray() error {
	white := image.NewRGBA(image.Rect(0, 0, 1, 1))
	white.SetRGBA(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	tex, err := NewColorTexture(r.Context, r.Recorder, white)
	if err != nil {
		return err
	}
	tex.slot = r.textureSlots.Allocate(1, 1)
	r.defaultTexture = tex

	r.Textures, err = NewDescriptorSet(r.Context, DescriptorSetInfo{
		Bindless:    true,
		MaxTextures: uint32(r.Context.Config.MaxTextures),
		Default:     tex,
	})
	return err
}

// RegisterExtentDependent adds d to the resources rebuilt after the
// swapchain, in registration order.
func (r *Renderer) RegisterExtentDependent(d ExtentDependent) {
	r.extentDependent = append(r.extentDependent, d)
}

// recreate rebuilds the swapchain and its dependents. A minimized window has
// a zero sized framebuffer, so it blocks on window events until the size is
// usable again or the window is closing.
func (r *Renderer) recreate() error {
	window := r.Context.Window
	for w, h := window.FramebufferSize(); w == 0 || h == 0; w, h = window.FramebufferSize() {
		if window.ShouldClose() {
			logger.Debug("window closed while minimized, swapchain not rebuilt")
			return nil
		}
		logger.Debug("framebuffer is empty, waiting for events", "width", w, "height", h)
		window.WaitEvents()
	}
	if err := r.Swapchain.Recreate(); err != nil {
		return err
	}
	extent := r.Swapchain.Extent
	for _, d := range r.extentDependent {
		if err := d.Recreate(extent); err != nil {
			return err
		}
	}
	return nil
}

// Extent is the current swapchain size.
func (r *Renderer) Extent() vk.Extent2D {
	return r.Swapchain.Extent
}

func (r *Renderer) CreateBuffer(info BufferInfo) (*Buffer, error) {
	return NewBuffer(r.Context, r.Recorder, info)
}

// UpdateBuffer writes data into the uniform region of the current frame
// slot.
func (r *Renderer) UpdateBuffer(buf *Buffer, data []byte) error {
	return buf.UpdateUniformBuffer(r.frameIndex, data)
}

// CreateTexture uploads pixels and publishes the texture in the global
// array at Texture.Index.
func (r *Renderer) CreateTexture(pixels *image.RGBA) (*Texture, error) {
	if r.state == StateRecording {
		return nil, errors.Wrap(ErrRecording, "create texture")
	}
	slot := r.textureSlots.Allocate(1, 1)
	if slot == nil {
		return nil, resourceError("texture", errors.Wrapf(ErrNoTextureSlots, "%d in use", r.textureSlots.Used()))
	}
	tex, err := NewColorTexture(r.Context, r.Recorder, pixels)
	if err != nil {
		r.textureSlots.Free(slot)
		return nil, err
	}
	tex.slot = slot
	if err := r.Context.WaitIdle(); err != nil {
		r.DestroyTexture(tex)
		return nil, err
	}
	if err := r.Textures.WriteTexture(uint32(slot.Offset), tex); err != nil {
		r.DestroyTexture(tex)
		return nil, err
	}
	logger.Debug("texture created", "index", slot.Offset, "extent", extentString(tex.Extent))
	return tex, nil
}

// LoadTexture decodes the image at path and creates a texture from it.
func (r *Renderer) LoadTexture(path string) (*Texture, error) {
	pixels, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	return r.CreateTexture(pixels)
}

// DestroyTexture points the texture's array element back at the default
// texture, frees the slot and destroys tex.
func (r *Renderer) DestroyTexture(tex *Texture) {
	if tex.slot != nil {
		if err := r.Context.WaitIdle(); err != nil {
			logger.Warn("wait idle before texture destroy", "err", err)
		}
		if err := r.Textures.WriteTexture(uint32(tex.slot.Offset), r.defaultTexture); err != nil {
			logger.Warn("reset texture slot", "index", tex.slot.Offset, "err", err)
		}
		r.textureSlots.Free(tex.slot)
		tex.slot = nil
	}
	tex.Destroy()
}

func (r *Renderer) CreateShader(code []byte, stage vk.ShaderStageFlagBits) (*Shader, error) {
	return NewShader(r.Context, code, stage)
}

func (r *Renderer) LoadShader(path string, stage vk.ShaderStageFlagBits) (*Shader, error) {
	return LoadShader(r.Context, path, stage)
}

// CreatePipeline builds a pipeline against the renderer's pass. The global
// texture array is prepended as set 0, so info.SetLayouts start at set 1.
func (r *Renderer) CreatePipeline(info PipelineInfo) (*Pipeline, error) {
	info.SetLayouts = append([]vk.DescriptorSetLayout{r.Textures.VKDescriptorSetLayout}, info.SetLayouts...)
	info.Cache = r.PipelineCache
	if r.DepthTexture == nil {
		info.DepthTest = false
		info.DepthWrite = false
	}
	p, err := NewPipeline(r.Context, r.RenderPass, info)
	if err != nil {
		return nil, err
	}
	p.globalSets = 1
	return p, nil
}

func (r *Renderer) CreateDescriptorSet(info DescriptorSetInfo) (*DescriptorSet, error) {
	return NewDescriptorSet(r.Context, info)
}

// Run draws frames until the window asks to close, then waits for the
// device.
func (r *Renderer) Run(draw DrawFunc) error {
	return r.RunFrames(-1, draw)
}

// RunFrames is Run bounded to n iterations; a negative n never stops on
// its own.
func (r *Renderer) RunFrames(n int, draw DrawFunc) error {
	window := r.Context.Window
	r.lastTime = window.Time()
	for i := 0; (n < 0 || i < n) && !window.ShouldClose(); i++ {
		if err := r.frame(draw); err != nil {
			r.waitIdle()
			return err
		}
	}
	r.waitIdle()
	return nil
}

func (r *Renderer) frame(draw DrawFunc) error {
	window := r.Context.Window
	now := window.Time()
	delta := float32(now - r.lastTime)
	r.lastTime = now

	window.PollEvents()
	if w, h := window.FramebufferSize(); w == 0 || h == 0 {
		return nil
	}

	ok, err := r.BeginFrame(r.Context.Config.ClearValue())
	if err != nil || !ok {
		return err
	}
	extent := r.Swapchain.Extent
	aspect := float32(1)
	if extent.Height > 0 {
		aspect = float32(extent.Width) / float32(extent.Height)
	}
	draw(extent.Width, extent.Height, aspect, delta)
	if err := r.EndFrame(); err != nil {
		return err
	}
	return r.SubmitFrame()
}

func (r *Renderer) waitIdle() {
	if err := r.Context.WaitIdle(); err != nil {
		logger.Warn("wait idle", "err", err)
	}
}

// Destroy waits for the device and releases everything in reverse creation
// order, the Context last. Resources created through the factories must be
// destroyed first.
func (r *Renderer) Destroy() {
	r.destroy(true)
}

func (r *Renderer) destroy(withContext bool) {
	if r.Context.Driver != nil {
		r.waitIdle()
	}
	if r.Textures != nil {
		r.Textures.Destroy()
	}
	if r.defaultTexture != nil {
		r.defaultTexture.Destroy()
	}
	if r.Framebuffers != nil {
		r.Framebuffers.Destroy()
	}
	if r.RenderPass != nil {
		r.RenderPass.Destroy()
	}
	if r.DepthTexture != nil {
		r.DepthTexture.Destroy()
	}
	if r.PipelineCache != nil {
		r.Context.Driver.DestroyPipelineCache(r.PipelineCache)
		r.PipelineCache = nil
	}
	if r.Recorder != nil {
		r.Recorder.Destroy()
	}
	if r.Sync != nil {
		r.Sync.Destroy()
	}
	if r.Swapchain != nil {
		r.Swapchain.Destroy()
	}
	if withContext {
		r.Context.Destroy()
	}
}
