package vkr

import (
	"fmt"
	"testing"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// fakeDriver records what the renderer asks of the device. Handles are
// distinct Go pointers; destroyed handles are remembered so later uses show
// up in stale.
type fakeDriver struct {
	calls []string

	live      map[unsafe.Pointer]string
	destroyed map[unsafe.Pointer]string
	stale     []string

	caps        vk.SurfaceCapabilities
	formats     []vk.SurfaceFormat
	modes       []vk.PresentMode
	formatProps map[vk.Format]vk.FormatProperties
	memProps    vk.PhysicalDeviceMemoryProperties

	memory      map[unsafe.Pointer][]byte
	bufferSizes map[unsafe.Pointer]vk.DeviceSize
	signaled    map[unsafe.Pointer]bool

	swapchains     []vk.Swapchain
	swapchainInfos []vk.SwapchainCreateInfo
	images         map[unsafe.Pointer][]vk.Image
	views          []vk.ImageView

	// acquireResults and presentResults are keyed by 1 based call number.
	acquireResults map[int]vk.Result
	presentResults map[int]vk.Result
	acquires       int
	presents       int
	nextImage      uint32

	submits      []vk.SubmitInfo
	submitFences []vk.Fence
	barriers     []vk.ImageMemoryBarrier
	stages       []barrierStages
	writes       []vk.WriteDescriptorSet
	boundSets    []boundSets
	pushed       [][]byte
	framebuffers []vk.FramebufferCreateInfo
	pipelines    []vk.GraphicsPipelineCreateInfo
	layouts      []vk.PipelineLayoutCreateInfo
	samplers     []vk.SamplerCreateInfo
	renderPasses []vk.RenderPassCreateInfo

	fail map[string]bool
}

type barrierStages struct {
	src, dst vk.PipelineStageFlags
}

type boundSets struct {
	first uint32
	sets  []vk.DescriptorSet
}

var _ Driver = (*fakeDriver)(nil)

func newFakeDriver() *fakeDriver {
	f := &fakeDriver{
		live:      map[unsafe.Pointer]string{},
		destroyed: map[unsafe.Pointer]string{},
		caps: vk.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  3,
			CurrentExtent:  vk.Extent2D{Width: 800, Height: 600},
			MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
		},
		formats: []vk.SurfaceFormat{
			{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
			{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		},
		modes: []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox},
		formatProps: map[vk.Format]vk.FormatProperties{
			vk.FormatD32Sfloat: {
				OptimalTilingFeatures: vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit),
			},
		},
		memory:         map[unsafe.Pointer][]byte{},
		bufferSizes:    map[unsafe.Pointer]vk.DeviceSize{},
		signaled:       map[unsafe.Pointer]bool{},
		images:         map[unsafe.Pointer][]vk.Image{},
		acquireResults: map[int]vk.Result{},
		presentResults: map[int]vk.Result{},
		fail:           map[string]bool{},
	}
	f.memProps.MemoryTypeCount = 2
	f.memProps.MemoryTypes[0].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	f.memProps.MemoryTypes[1].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	return f
}

func (f *fakeDriver) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeDriver) count(call string) int {
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeDriver) failure(call string) error {
	if f.fail[call] {
		return NewError(vk.ErrorOutOfDeviceMemory)
	}
	return nil
}

func (f *fakeDriver) handle(kind string) unsafe.Pointer {
	p := unsafe.Pointer(new(uint64))
	f.live[p] = kind
	return p
}

func (f *fakeDriver) release(p unsafe.Pointer) {
	if p == nil {
		return
	}
	if kind, ok := f.live[p]; ok {
		delete(f.live, p)
		f.destroyed[p] = kind
	}
}

func (f *fakeDriver) use(call string, p unsafe.Pointer) {
	if kind, ok := f.destroyed[p]; ok {
		f.stale = append(f.stale, fmt.Sprintf("%s used destroyed %s", call, kind))
	}
}

func (f *fakeDriver) isLive(p unsafe.Pointer) bool {
	_, ok := f.live[p]
	return ok
}

// liveKinds counts live handles by kind.
func (f *fakeDriver) liveKinds() map[string]int {
	m := map[string]int{}
	for _, k := range f.live {
		m[k]++
	}
	return m
}

// reset forgets recorded calls, keeping handles and scripted results.
func (f *fakeDriver) reset() {
	f.calls = nil
	f.submits = nil
	f.submitFences = nil
	f.barriers = nil
	f.stages = nil
	f.writes = nil
	f.boundSets = nil
	f.pushed = nil
}

func (f *fakeDriver) frameSubmits() int {
	n := 0
	for _, fence := range f.submitFences {
		if fence != nil {
			n++
		}
	}
	return n
}

func (f *fakeDriver) CreateSemaphore() (vk.Semaphore, error) {
	return vk.Semaphore(f.handle("semaphore")), nil
}

func (f *fakeDriver) DestroySemaphore(s vk.Semaphore) {
	f.release(unsafe.Pointer(s))
}

func (f *fakeDriver) CreateFence(signaled bool) (vk.Fence, error) {
	p := f.handle("fence")
	f.signaled[p] = signaled
	return vk.Fence(p), nil
}

func (f *fakeDriver) DestroyFence(fence vk.Fence) {
	f.release(unsafe.Pointer(fence))
}

func (f *fakeDriver) WaitForFence(fence vk.Fence, timeout uint64) error {
	f.record("WaitForFence")
	if !f.signaled[unsafe.Pointer(fence)] {
		return fmt.Errorf("wait on unsignaled fence would block forever")
	}
	return nil
}

func (f *fakeDriver) ResetFence(fence vk.Fence) error {
	f.record("ResetFence")
	f.signaled[unsafe.Pointer(fence)] = false
	return nil
}

func (f *fakeDriver) CreateCommandPool(family uint32, flags vk.CommandPoolCreateFlags) (vk.CommandPool, error) {
	return vk.CommandPool(f.handle("command pool")), nil
}

func (f *fakeDriver) DestroyCommandPool(pool vk.CommandPool) {
	f.release(unsafe.Pointer(pool))
}

func (f *fakeDriver) AllocateCommandBuffers(pool vk.CommandPool, count uint32) ([]vk.CommandBuffer, error) {
	cbs := make([]vk.CommandBuffer, count)
	for i := range cbs {
		cbs[i] = vk.CommandBuffer(f.handle("command buffer"))
	}
	return cbs, nil
}

func (f *fakeDriver) FreeCommandBuffers(pool vk.CommandPool, cbs []vk.CommandBuffer) {
	for _, cb := range cbs {
		f.release(unsafe.Pointer(cb))
	}
}

func (f *fakeDriver) BeginCommandBuffer(cb vk.CommandBuffer, flags vk.CommandBufferUsageFlags) error {
	f.record("BeginCommandBuffer")
	return nil
}

func (f *fakeDriver) EndCommandBuffer(cb vk.CommandBuffer) error {
	f.record("EndCommandBuffer")
	return nil
}

func (f *fakeDriver) ResetCommandBuffer(cb vk.CommandBuffer) error {
	f.record("ResetCommandBuffer")
	return nil
}

func (f *fakeDriver) CmdPipelineBarrier(cb vk.CommandBuffer, src, dst vk.PipelineStageFlags, barrier vk.ImageMemoryBarrier) {
	f.record("CmdPipelineBarrier")
	f.use("CmdPipelineBarrier", unsafe.Pointer(barrier.Image))
	f.barriers = append(f.barriers, barrier)
	f.stages = append(f.stages, barrierStages{src: src, dst: dst})
}

func (f *fakeDriver) CmdBeginRenderPass(cb vk.CommandBuffer, rp vk.RenderPass, fb vk.Framebuffer, extent vk.Extent2D, clear []vk.ClearValue) {
	f.record("CmdBeginRenderPass")
	f.use("CmdBeginRenderPass", unsafe.Pointer(fb))
}

func (f *fakeDriver) CmdEndRenderPass(cb vk.CommandBuffer) {
	f.record("CmdEndRenderPass")
}

func (f *fakeDriver) CmdSetViewport(cb vk.CommandBuffer, viewport vk.Viewport) {
	f.record("CmdSetViewport")
}

func (f *fakeDriver) CmdSetScissor(cb vk.CommandBuffer, scissor vk.Rect2D) {
	f.record("CmdSetScissor")
}

func (f *fakeDriver) CmdBindPipeline(cb vk.CommandBuffer, p vk.Pipeline) {
	f.record("CmdBindPipeline")
}

func (f *fakeDriver) CmdBindVertexBuffers(cb vk.CommandBuffer, first uint32, buffers []vk.Buffer, offsets []vk.DeviceSize) {
	f.record("CmdBindVertexBuffers")
}

func (f *fakeDriver) CmdBindIndexBuffer(cb vk.CommandBuffer, buffer vk.Buffer, offset vk.DeviceSize, indexType vk.IndexType) {
	f.record("CmdBindIndexBuffer")
}

func (f *fakeDriver) CmdBindDescriptorSets(cb vk.CommandBuffer, layout vk.PipelineLayout, first uint32, sets []vk.DescriptorSet) {
	f.record("CmdBindDescriptorSets")
	f.boundSets = append(f.boundSets, boundSets{first: first, sets: sets})
}

func (f *fakeDriver) CmdDraw(cb vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	f.record("CmdDraw")
}

func (f *fakeDriver) CmdDrawIndexed(cb vk.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	f.record("CmdDrawIndexed")
}

func (f *fakeDriver) CmdPushConstants(cb vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset uint32, data []byte) {
	f.record("CmdPushConstants")
	f.pushed = append(f.pushed, append([]byte(nil), data...))
}

func (f *fakeDriver) CmdCopyBuffer(cb vk.CommandBuffer, src, dst vk.Buffer, size vk.DeviceSize) {
	f.record("CmdCopyBuffer")
}

func (f *fakeDriver) CmdCopyBufferToImage(cb vk.CommandBuffer, src vk.Buffer, dst vk.Image, width, height uint32) {
	f.record("CmdCopyBufferToImage")
}

func (f *fakeDriver) QueueSubmit(q vk.Queue, info vk.SubmitInfo, fence vk.Fence) error {
	f.record("QueueSubmit")
	f.submits = append(f.submits, info)
	f.submitFences = append(f.submitFences, fence)
	if fence != nil {
		// work retires immediately
		f.signaled[unsafe.Pointer(fence)] = true
	}
	return nil
}

func (f *fakeDriver) QueueWaitIdle(q vk.Queue) error {
	f.record("QueueWaitIdle")
	return nil
}

func (f *fakeDriver) QueuePresent(q vk.Queue, wait vk.Semaphore, swapchain vk.Swapchain, imageIndex uint32) vk.Result {
	f.record("QueuePresent")
	f.use("QueuePresent", unsafe.Pointer(swapchain))
	f.presents++
	if r, ok := f.presentResults[f.presents]; ok {
		return r
	}
	return vk.Success
}

func (f *fakeDriver) DeviceWaitIdle() error {
	f.record("DeviceWaitIdle")
	return nil
}

func (f *fakeDriver) SurfaceCapabilities(surface vk.Surface) (vk.SurfaceCapabilities, error) {
	return f.caps, nil
}

func (f *fakeDriver) SurfaceFormats(surface vk.Surface) ([]vk.SurfaceFormat, error) {
	return f.formats, nil
}

func (f *fakeDriver) SurfacePresentModes(surface vk.Surface) ([]vk.PresentMode, error) {
	return f.modes, nil
}

func (f *fakeDriver) CreateSwapchain(info vk.SwapchainCreateInfo) (vk.Swapchain, error) {
	f.record("CreateSwapchain")
	if err := f.failure("CreateSwapchain"); err != nil {
		return vk.NullSwapchain, err
	}
	p := f.handle("swapchain")
	images := make([]vk.Image, info.MinImageCount)
	for i := range images {
		// presentable images belong to the chain, not the live set
		images[i] = vk.Image(unsafe.Pointer(new(uint64)))
	}
	f.images[p] = images
	sc := vk.Swapchain(p)
	f.swapchains = append(f.swapchains, sc)
	f.swapchainInfos = append(f.swapchainInfos, info)
	return sc, nil
}

func (f *fakeDriver) DestroySwapchain(sc vk.Swapchain) {
	f.record("DestroySwapchain")
	f.release(unsafe.Pointer(sc))
	for _, img := range f.images[unsafe.Pointer(sc)] {
		f.destroyed[unsafe.Pointer(img)] = "swapchain image"
	}
}

func (f *fakeDriver) SwapchainImages(sc vk.Swapchain) ([]vk.Image, error) {
	return f.images[unsafe.Pointer(sc)], nil
}

func (f *fakeDriver) AcquireNextImage(sc vk.Swapchain, timeout uint64, signal vk.Semaphore) (uint32, vk.Result) {
	f.record("AcquireNextImage")
	f.use("AcquireNextImage", unsafe.Pointer(sc))
	f.acquires++
	if r, ok := f.acquireResults[f.acquires]; ok && r != vk.Success {
		return 0, r
	}
	images := f.images[unsafe.Pointer(sc)]
	index := f.nextImage % uint32(len(images))
	f.nextImage++
	return index, vk.Success
}

func (f *fakeDriver) MemoryProperties() vk.PhysicalDeviceMemoryProperties {
	return f.memProps
}

func (f *fakeDriver) FormatProperties(format vk.Format) vk.FormatProperties {
	return f.formatProps[format]
}

func (f *fakeDriver) CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags) (vk.Buffer, error) {
	f.record("CreateBuffer")
	if err := f.failure("CreateBuffer"); err != nil {
		return vk.NullBuffer, err
	}
	p := f.handle("buffer")
	f.bufferSizes[p] = size
	return vk.Buffer(p), nil
}

func (f *fakeDriver) DestroyBuffer(b vk.Buffer) {
	f.release(unsafe.Pointer(b))
}

func (f *fakeDriver) BufferMemoryRequirements(b vk.Buffer) vk.MemoryRequirements {
	size := makeAlignUp(uint64(f.bufferSizes[unsafe.Pointer(b)]), 16)
	return vk.MemoryRequirements{Size: vk.DeviceSize(size), Alignment: 16, MemoryTypeBits: 0x3}
}

func (f *fakeDriver) BindBufferMemory(b vk.Buffer, mem vk.DeviceMemory) error {
	return nil
}

func (f *fakeDriver) CreateImage(info vk.ImageCreateInfo) (vk.Image, error) {
	f.record("CreateImage")
	return vk.Image(f.handle("image")), nil
}

func (f *fakeDriver) DestroyImage(img vk.Image) {
	f.release(unsafe.Pointer(img))
}

func (f *fakeDriver) ImageMemoryRequirements(img vk.Image) vk.MemoryRequirements {
	return vk.MemoryRequirements{Size: 4096, Alignment: 256, MemoryTypeBits: 0x3}
}

func (f *fakeDriver) BindImageMemory(img vk.Image, mem vk.DeviceMemory) error {
	return nil
}

func (f *fakeDriver) CreateImageView(info vk.ImageViewCreateInfo) (vk.ImageView, error) {
	f.use("CreateImageView", unsafe.Pointer(info.Image))
	v := vk.ImageView(f.handle("image view"))
	f.views = append(f.views, v)
	return v, nil
}

func (f *fakeDriver) DestroyImageView(v vk.ImageView) {
	f.release(unsafe.Pointer(v))
}

func (f *fakeDriver) CreateSampler(info vk.SamplerCreateInfo) (vk.Sampler, error) {
	f.samplers = append(f.samplers, info)
	return vk.Sampler(f.handle("sampler")), nil
}

func (f *fakeDriver) DestroySampler(s vk.Sampler) {
	f.release(unsafe.Pointer(s))
}

func (f *fakeDriver) AllocateMemory(size vk.DeviceSize, typeIndex uint32) (vk.DeviceMemory, error) {
	p := f.handle("memory")
	f.memory[p] = make([]byte, size)
	return vk.DeviceMemory(p), nil
}

func (f *fakeDriver) FreeMemory(mem vk.DeviceMemory) {
	f.release(unsafe.Pointer(mem))
}

func (f *fakeDriver) MapMemory(mem vk.DeviceMemory, offset, size vk.DeviceSize) ([]byte, error) {
	f.record("MapMemory")
	buf := f.memory[unsafe.Pointer(mem)]
	return buf[offset : offset+size], nil
}

func (f *fakeDriver) UnmapMemory(mem vk.DeviceMemory) {
	f.record("UnmapMemory")
}

func (f *fakeDriver) CreateShaderModule(code []byte) (vk.ShaderModule, error) {
	return vk.ShaderModule(f.handle("shader module")), nil
}

func (f *fakeDriver) DestroyShaderModule(m vk.ShaderModule) {
	f.release(unsafe.Pointer(m))
}

func (f *fakeDriver) CreateRenderPass(info vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	f.renderPasses = append(f.renderPasses, info)
	return vk.RenderPass(f.handle("render pass")), nil
}

func (f *fakeDriver) DestroyRenderPass(rp vk.RenderPass) {
	f.release(unsafe.Pointer(rp))
}

func (f *fakeDriver) CreateFramebuffer(info vk.FramebufferCreateInfo) (vk.Framebuffer, error) {
	f.record("CreateFramebuffer")
	for _, v := range info.PAttachments {
		f.use("CreateFramebuffer", unsafe.Pointer(v))
	}
	f.framebuffers = append(f.framebuffers, info)
	return vk.Framebuffer(f.handle("framebuffer")), nil
}

func (f *fakeDriver) DestroyFramebuffer(fb vk.Framebuffer) {
	f.release(unsafe.Pointer(fb))
}

func (f *fakeDriver) CreatePipelineLayout(info vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error) {
	f.layouts = append(f.layouts, info)
	return vk.PipelineLayout(f.handle("pipeline layout")), nil
}

func (f *fakeDriver) DestroyPipelineLayout(l vk.PipelineLayout) {
	f.release(unsafe.Pointer(l))
}

func (f *fakeDriver) CreatePipelineCache() (vk.PipelineCache, error) {
	return vk.PipelineCache(f.handle("pipeline cache")), nil
}

func (f *fakeDriver) DestroyPipelineCache(c vk.PipelineCache) {
	f.release(unsafe.Pointer(c))
}

func (f *fakeDriver) CreateGraphicsPipeline(cache vk.PipelineCache, info vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error) {
	if err := f.failure("CreateGraphicsPipeline"); err != nil {
		return vk.NullPipeline, err
	}
	f.pipelines = append(f.pipelines, info)
	return vk.Pipeline(f.handle("pipeline")), nil
}

func (f *fakeDriver) DestroyPipeline(p vk.Pipeline) {
	f.release(unsafe.Pointer(p))
}

func (f *fakeDriver) CreateDescriptorSetLayout(info vk.DescriptorSetLayoutCreateInfo) (vk.DescriptorSetLayout, error) {
	return vk.DescriptorSetLayout(f.handle("descriptor set layout")), nil
}

func (f *fakeDriver) DestroyDescriptorSetLayout(l vk.DescriptorSetLayout) {
	f.release(unsafe.Pointer(l))
}

func (f *fakeDriver) CreateDescriptorPool(info vk.DescriptorPoolCreateInfo) (vk.DescriptorPool, error) {
	return vk.DescriptorPool(f.handle("descriptor pool")), nil
}

func (f *fakeDriver) DestroyDescriptorPool(p vk.DescriptorPool) {
	f.release(unsafe.Pointer(p))
}

func (f *fakeDriver) AllocateDescriptorSet(pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	// sets are released with their pool and are not tracked
	return vk.DescriptorSet(unsafe.Pointer(new(uint64))), nil
}

func (f *fakeDriver) UpdateDescriptorSets(writes []vk.WriteDescriptorSet) {
	f.record("UpdateDescriptorSets")
	f.writes = append(f.writes, writes...)
}

// fakeWindow is a Window with a settable size and a clock advancing one
// 60 Hz tick per read.
type fakeWindow struct {
	width, height int
	resized       bool
	closeAfter    int
	polls         int
	now           float64

	// onWait runs on every WaitEvents call, standing in for the event that
	// wakes a blocked window.
	onWait func(w *fakeWindow)
	waits  int
}

var _ Window = (*fakeWindow)(nil)

func (w *fakeWindow) FramebufferSize() (int, int) { return w.width, w.height }

func (w *fakeWindow) ShouldClose() bool {
	return w.closeAfter > 0 && w.polls >= w.closeAfter
}

func (w *fakeWindow) PollEvents() { w.polls++ }

func (w *fakeWindow) WaitEvents() {
	w.waits++
	if w.onWait != nil {
		w.onWait(w)
	}
}

func (w *fakeWindow) Resized() bool { return w.resized }

func (w *fakeWindow) ClearResized() { w.resized = false }

func (w *fakeWindow) Time() float64 {
	w.now += 1.0 / 60
	return w.now
}

func (w *fakeWindow) RequiredInstanceExtensions() []string { return []string{"VK_KHR_surface"} }

func (w *fakeWindow) CreateSurface(vk.Instance) (vk.Surface, error) {
	return vk.NullSurface, nil
}

func (w *fakeWindow) InstanceProcAddr() unsafe.Pointer { return nil }

// newFakeContext returns a Context backed by f with both queues on family 0.
func newFakeContext(f *fakeDriver) *Context {
	q := vk.Queue(unsafe.Pointer(new(uint64)))
	return &Context{
		Config:        DefaultConfig(),
		Window:        &fakeWindow{width: 800, height: 600},
		Surface:       vk.Surface(f.handle("surface")),
		Families:      QueueFamilyIndices{Graphics: 0, Present: 0},
		GraphicsQueue: &Queue{driver: f, Family: 0, VKQueue: q},
		PresentQueue:  &Queue{driver: f, Family: 0, VKQueue: q},
		Driver:        f,
	}
}

func newFakeRenderer(t *testing.T, f *fakeDriver, configure func(*Config)) *Renderer {
	t.Helper()
	ctx := newFakeContext(f)
	if configure != nil {
		configure(&ctx.Config)
	}
	r, err := newRenderer(ctx)
	if err != nil {
		t.Fatalf("newRenderer: %v", err)
	}
	return r
}
