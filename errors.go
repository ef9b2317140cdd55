package vkr

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	vk "github.com/vulkan-go/vulkan"
)

var (
	// ErrNoSuitableDevice is returned when no physical device exposes the
	// queues, extensions and surface support the renderer needs.
	ErrNoSuitableDevice = errors.New("no suitable physical device")

	// ErrMissingExtensions is returned when requested layers or extensions
	// are not available on the instance or device.
	ErrMissingExtensions = errors.New("missing layers or extensions")

	// ErrNoPipelineBound is the panic value of every bind or draw call made
	// before a pipeline was bound in the current frame.
	ErrNoPipelineBound = errors.New("no pipeline bound")

	// ErrNotRecording is the panic value of every bind or draw call made
	// outside BeginFrame and EndFrame.
	ErrNotRecording = errors.New("no frame is recording")

	ErrNotUniformBuffer    = errors.New("buffer is not a uniform buffer")
	ErrOutOfRange          = errors.New("out of range")
	ErrNoDepthFormat       = errors.New("no supported depth format")
	ErrNoMemoryType        = errors.New("no matching memory type found")
	ErrInvalidShaderStage  = errors.New("invalid shader stage")
	ErrShaderStageMismatch = errors.New("shader stage does not match pipeline slot")
	ErrInvalidShaderCode   = errors.New("shader code must be a non-empty multiple of 4 bytes")
	ErrUnknownConfigFormat = errors.New("unknown config format")
	ErrInvalidConfig       = errors.New("invalid config")
	ErrNoTextureSlots      = errors.New("no free texture slots")
	ErrRecording           = errors.New("operation not allowed while recording a frame")
)

// InitializationError reports a failure while bringing up the window system,
// the loader, the instance, the surface or the device.
type InitializationError struct {
	Stage string
	Err   error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initialization failed at %s: %v", e.Stage, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

func initError(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &InitializationError{Stage: stage, Err: err}
}

// ResourceCreationError reports a failed buffer, image, pipeline or
// descriptor allocation. There is no retry policy.
type ResourceCreationError struct {
	Kind string
	Err  error
}

func (e *ResourceCreationError) Error() string {
	return fmt.Sprintf("create %s: %v", e.Kind, e.Err)
}

func (e *ResourceCreationError) Unwrap() error {
	return e.Err
}

func resourceError(kind string, err error) error {
	if err == nil {
		return nil
	}
	return &ResourceCreationError{Kind: kind, Err: err}
}

// UnsupportedLayoutTransitionError is the panic value raised when a barrier
// is requested for a layout pair outside the fixed transition table.
type UnsupportedLayoutTransitionError struct {
	From vk.ImageLayout
	To   vk.ImageLayout
}

func (e *UnsupportedLayoutTransitionError) Error() string {
	return fmt.Sprintf("unsupported layout transition %d -> %d", e.From, e.To)
}

// ResultError carries a failing vk.Result together with the call site that
// observed it.
type ResultError struct {
	Result vk.Result
	File   string
	Line   int
}

func (e *ResultError) Error() string {
	msg := fmt.Sprintf("vulkan error: %v (%d)", vk.Error(e.Result), e.Result)
	if e.File != "" {
		msg += fmt.Sprintf(" at %s:%d", e.File, e.Line)
	}
	return msg
}

// IsResult reports whether err carries the given vk.Result.
func IsResult(err error, result vk.Result) bool {
	var re *ResultError
	return errors.As(err, &re) && re.Result == result
}

// NewError converts a vk.Result into an error, nil for success.
func NewError(ret vk.Result) error {
	if !IsError(ret) {
		return nil
	}
	e := &ResultError{Result: ret}
	if _, file, line, ok := runtime.Caller(1); ok {
		e.File = filepath.Base(file)
		e.Line = line
	}
	return e
}

// IsError reports whether ret is a failure code.
func IsError(ret vk.Result) bool {
	return ret != vk.Success && ret != vk.Incomplete
}
