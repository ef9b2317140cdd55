/*
Package vkr is a thin Vulkan renderer for go. It owns the parts of a Vulkan
application that every program repeats: the instance and device, the
swapchain and its framebuffers, per frame synchronization, and the
acquire/record/submit/present loop. Everything the application draws is
created through the Renderer and handed back as a plain object with a
Destroy method.

Native Vulkan handles are exposed on every object with a 'VK' prefix, so an
application is never limited to what the package wraps.

Objects

	Context		instance, surface, physical and logical device, queues
	Swapchain	presentable images and their views, rebuilt on resize
	SyncSet		per frame semaphores and fences, MaxFramesInFlight of each
	CommandRecorder	per frame command buffers and single use uploads
	RenderPass	one color attachment and an optional depth attachment
	Buffer		staged device local data, or per frame mapped uniforms
	Texture		a sampled color image or the depth attachment
	Shader		one SPIR-V module and its stage
	Pipeline	an immutable graphics pipeline and its layout
	DescriptorSet	a pool, a layout and one set per frame slot
	Renderer	all of the above, plus the frame loop

Frames

A frame moves through Render.BeginFrame, the application's recording calls,
Render.EndFrame and Render.SubmitFrame. BeginFrame waits for the frame slot's
fence before acquiring, so at most MaxFramesInFlight frames are queued on
the GPU. When the surface goes out of date the swapchain and everything
registered as ExtentDependent are rebuilt and the frame is skipped.

	renderer, err := vkr.NewRenderer(cfg, window)
	...
	err = renderer.Run(func(width, height uint32, aspect, dt float32) {
		renderer.BindPipeline(pipeline)
		renderer.BindVertexBuffer(0, vertices, 0)
		renderer.Draw(3, 1, 0, 0)
	})

Textures

Textures created by the Renderer are published in a global array of
combined image samplers bound at set 0 of every pipeline it creates. Unused
elements point at a 1x1 white texture. Shaders index the array with
Texture.Index, usually passed as a push constant; application descriptor
sets start at set 1.

The Driver interface sits between the objects above and the device, which is
how the frame protocol is tested without a GPU.
*/
package vkr
