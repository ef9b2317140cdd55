package vkr

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ClearColor is the RGBA value the color attachment is cleared to.
type ClearColor [4]float32

type FrameState int

const (
	StateIdle FrameState = iota
	StateAcquired
	StateRecording
	StateSubmitted
	StatePresented
	StateSurfaceInvalid
)

var frameStateNames = [...]string{
	StateIdle:           "idle",
	StateAcquired:       "acquired",
	StateRecording:      "recording",
	StateSubmitted:      "submitted",
	StatePresented:      "presented",
	StateSurfaceInvalid: "surface-invalid",
}

func (s FrameState) String() string {
	if s < 0 || int(s) >= len(frameStateNames) {
		return fmt.Sprintf("FrameState(%d)", int(s))
	}
	return frameStateNames[s]
}

// Render drives one frame at a time through acquire, record, submit and
// present. It holds non owning references to everything it touches.
type Render struct {
	driver       Driver
	window       Window
	sync         *SyncSet
	recorder     *CommandRecorder
	graphics     *Queue
	present      *Queue
	swapchain    *Swapchain
	renderPass   *RenderPass
	framebuffers *Framebuffers
	depth        *Texture
	global       *DescriptorSet

	// recreate rebuilds the swapchain and everything sized by it.
	recreate func() error

	frameIndex int
	imageIndex uint32
	state      FrameState
	cmd        *CommandBuffer
	bound      *Pipeline
	// passOpen is true between the render pass begin and EndFrame.
	passOpen   bool
}

// State reports where the current frame is in its lifecycle.
func (r *Render) State() FrameState {
	return r.state
}

// FrameIndex is the frame slot in use, always 0 or 1.
func (r *Render) FrameIndex() int {
	return r.frameIndex
}

// ImageIndex is the swapchain image returned by the last acquire.
func (r *Render) ImageIndex() uint32 {
	return r.imageIndex
}

// BeginFrame waits for the slot, acquires an image and starts the render
// pass. It returns false when the surface was out of date; the swapchain has
// then been rebuilt and the caller must skip the rest of the frame.
func (r *Render) BeginFrame(clear ClearColor) (bool, error) {
	slot := r.frameIndex
	if err := r.sync.Wait(slot); err != nil {
		return false, errors.Wrap(err, "wait for frame fence")
	}

	index, ret := r.driver.AcquireNextImage(r.swapchain.VKSwapchain, vk.MaxUint64, r.sync.ImageAvailable[slot])
	switch ret {
	case vk.Success, vk.Suboptimal:
	case vk.ErrorOutOfDate:
		r.state = StateSurfaceInvalid
		logger.Debug("swapchain out of date on acquire", "frame", slot)
		// this rebuild covers a pending resize too
		r.window.ClearResized()
		// the fence is left signaled so the next wait returns
		if err := r.recreate(); err != nil {
			return false, errors.Wrap(err, "recreate after acquire")
		}
		r.state = StateIdle
		return false, nil
	default:
		return false, errors.Wrap(NewError(ret), "acquire next image")
	}
	r.imageIndex = index
	r.state = StateAcquired

	if err := r.sync.Reset(slot); err != nil {
		return false, errors.Wrap(err, "reset frame fence")
	}
	r.cmd = r.recorder.Buffer(slot)
	if err := r.cmd.Reset(); err != nil {
		return false, errors.Wrap(err, "reset frame command buffer")
	}
	if err := r.cmd.Begin(); err != nil {
		return false, errors.Wrap(err, "begin frame command buffer")
	}
	r.state = StateRecording

	r.cmd.CmdTransitionImage(r.swapchain.Images[index], vk.ImageAspectFlags(vk.ImageAspectColorBit),
		vk.ImageLayoutUndefined, vk.ImageLayoutColorAttachmentOptimal)
	if r.depth != nil {
		r.cmd.CmdTransitionImage(r.depth.VKImage, depthAspect(r.depth.Format),
			vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal)
	}

	extent := r.swapchain.Extent
	cb := r.cmd.VKCommandBuffer
	r.driver.CmdBeginRenderPass(cb, r.renderPass.VKRenderPass, r.framebuffers.VKFramebuffers[index],
		extent, r.renderPass.ClearValues(clear))
	r.driver.CmdSetViewport(cb, vk.Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	})
	r.driver.CmdSetScissor(cb, vk.Rect2D{Extent: extent})

	r.bound = nil
	r.passOpen = true
	return true, nil
}

// EndFrame closes the render pass, moves the image to the present layout
// and ends recording.
func (r *Render) EndFrame() error {
	if r.state != StateRecording || !r.passOpen {
		return errors.Errorf("end frame in state %s", r.state)
	}
	r.passOpen = false
	r.driver.CmdEndRenderPass(r.cmd.VKCommandBuffer)
	r.cmd.CmdTransitionImage(r.swapchain.Images[r.imageIndex], vk.ImageAspectFlags(vk.ImageAspectColorBit),
		vk.ImageLayoutColorAttachmentOptimal, vk.ImageLayoutPresentSrc)
	r.bound = nil
	return errors.Wrap(r.cmd.End(), "end frame command buffer")
}

// SubmitFrame submits the recorded frame, presents it and advances the
// frame slot. A stale or resized surface is rebuilt after presentation.
func (r *Render) SubmitFrame() error {
	slot := r.frameIndex
	err := r.graphics.SubmitWithFence(r.sync.ImageAvailable[slot], r.sync.RenderFinished[slot],
		r.sync.InFlight[slot], r.cmd)
	if err != nil {
		return errors.Wrap(err, "submit frame")
	}
	r.state = StateSubmitted

	ret := r.present.Present(r.sync.RenderFinished[slot], r.swapchain.VKSwapchain, r.imageIndex)
	stale := ret == vk.ErrorOutOfDate || ret == vk.Suboptimal
	if !stale && IsError(ret) {
		return errors.Wrap(NewError(ret), "present")
	}
	r.state = StatePresented

	if stale || r.window.Resized() {
		r.window.ClearResized()
		logger.Debug("recreating swapchain after present", "result", ret, "frame", slot)
		if err := r.recreate(); err != nil {
			return errors.Wrap(err, "recreate after present")
		}
	}

	r.frameIndex = (r.frameIndex + 1) % MaxFramesInFlight
	r.cmd = nil
	r.state = StateIdle
	return nil
}

func (r *Render) mustRecord() {
	if r.state != StateRecording || !r.passOpen {
		panic(ErrNotRecording)
	}
}

func (r *Render) mustBound() *Pipeline {
	r.mustRecord()
	if r.bound == nil {
		panic(ErrNoPipelineBound)
	}
	return r.bound
}

// BindPipeline binds p for the rest of the frame along with the global
// texture set when p's layout starts with it. Rebinding the bound pipeline
// records nothing.
func (r *Render) BindPipeline(p *Pipeline) {
	r.mustRecord()
	if p == nil {
		panic(ErrNoPipelineBound)
	}
	if r.bound == p {
		return
	}
	r.bound = p
	cb := r.cmd.VKCommandBuffer
	r.driver.CmdBindPipeline(cb, p.VKPipeline)
	if p.globalSets > 0 && r.global != nil {
		r.driver.CmdBindDescriptorSets(cb, p.VKPipelineLayout, 0,
			[]vk.DescriptorSet{r.global.Set(r.frameIndex)})
	}
}

func (r *Render) BindVertexBuffer(first uint32, buf *Buffer, offset uint64) {
	r.mustBound()
	r.driver.CmdBindVertexBuffers(r.cmd.VKCommandBuffer, first,
		[]vk.Buffer{buf.VKBuffer(r.frameIndex)}, []vk.DeviceSize{vk.DeviceSize(offset)})
}

func (r *Render) BindIndexBuffer(buf *Buffer, offset uint64, indexType vk.IndexType) {
	r.mustBound()
	r.driver.CmdBindIndexBuffer(r.cmd.VKCommandBuffer, buf.VKBuffer(r.frameIndex),
		vk.DeviceSize(offset), indexType)
}

// BindDescriptorSet binds the slot's set right after any global sets of the
// bound pipeline.
func (r *Render) BindDescriptorSet(set *DescriptorSet) {
	p := r.mustBound()
	r.driver.CmdBindDescriptorSets(r.cmd.VKCommandBuffer, p.VKPipelineLayout, p.globalSets,
		[]vk.DescriptorSet{set.Set(r.frameIndex)})
}

func (r *Render) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	r.mustBound()
	r.driver.CmdDraw(r.cmd.VKCommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance)
}

func (r *Render) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	r.mustBound()
	r.driver.CmdDrawIndexed(r.cmd.VKCommandBuffer, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

// PushConstants writes data at offset 0 of the bound pipeline's range.
func (r *Render) PushConstants(data []byte) {
	p := r.mustBound()
	if len(data) == 0 {
		return
	}
	r.driver.CmdPushConstants(r.cmd.VKCommandBuffer, p.VKPipelineLayout, p.PushConstantStages, 0, data)
}
