package vkr

import (
	"fmt"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

var end = "\x00"
var endChar byte = '\x00'

// ToBytes views length bytes starting at ptr as a byte slice.
func ToBytes(ptr unsafe.Pointer, length int) []byte {
	if ptr == nil || length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(ptr), length)
}

func safeString(s string) string {
	if len(s) == 0 {
		return end
	}
	if s[len(s)-1] != endChar {
		return s + end
	}
	return s
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = safeString(list[i])
	}
	return out
}

// sliceUint32 reinterprets SPIR-V bytes as words. len(data) must be a
// multiple of 4.
func sliceUint32(data []byte) []uint32 {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}

func clamp[T ~uint32 | ~int | ~float32](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func hasFlag[T ~uint32](flags T, bit T) bool {
	return flags&bit == bit
}

func missingNames(available, required []string) []string {
	have := make(map[string]struct{}, len(available))
	for _, a := range available {
		have[vk.ToString([]byte(a))] = struct{}{}
	}
	var missing []string
	for _, r := range required {
		if _, ok := have[vk.ToString([]byte(r))]; !ok {
			missing = append(missing, r)
		}
	}
	return missing
}

func extentString(e vk.Extent2D) string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}
