package imguivk

import (
	"fmt"
	"unsafe"

	as "github.com/vulkan-go/asche"
	vk "github.com/vulkan-go/vulkan"
)

const minBufferSize = 4096

// hostBuffer is a persistently mapped, host-visible and coherent buffer.
type hostBuffer struct {
	buffer vk.Buffer
	memory vk.DeviceMemory
	mapped unsafe.Pointer
	size   int
	usage  vk.BufferUsageFlagBits
}

// bufferCapacity rounds need up to a power of two, at least minBufferSize,
// so buffers grow rarely.
func bufferCapacity(need int) int {
	size := minBufferSize
	for size < need {
		size <<= 1
	}
	return size
}

func newHostBuffer(dev vk.Device, memProps vk.PhysicalDeviceMemoryProperties,
	size int, usage vk.BufferUsageFlagBits) (*hostBuffer, error) {

	b := &hostBuffer{
		size:  size,
		usage: usage,
	}
	ret := vk.CreateBuffer(dev, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}, nil, &b.buffer)
	if err := as.NewError(ret); err != nil {
		return nil, fmt.Errorf("vk.CreateBuffer failed with %s", err)
	}

	var memReqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(dev, b.buffer, &memReqs)
	memReqs.Deref()

	memTypeIndex, ok := as.FindRequiredMemoryType(memProps,
		vk.MemoryPropertyFlagBits(memReqs.MemoryTypeBits),
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if !ok {
		vk.DestroyBuffer(dev, b.buffer, nil)
		return nil, fmt.Errorf("vulkan error: no host visible memory for a %d byte buffer", size)
	}
	ret = vk.AllocateMemory(dev, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memTypeIndex,
	}, nil, &b.memory)
	if err := as.NewError(ret); err != nil {
		vk.DestroyBuffer(dev, b.buffer, nil)
		return nil, fmt.Errorf("vk.AllocateMemory failed with %s", err)
	}
	ret = vk.BindBufferMemory(dev, b.buffer, b.memory, 0)
	if err := as.NewError(ret); err != nil {
		b.destroy(dev)
		return nil, fmt.Errorf("vk.BindBufferMemory failed with %s", err)
	}
	ret = vk.MapMemory(dev, b.memory, 0, vk.DeviceSize(size), 0, &b.mapped)
	if err := as.NewError(ret); err != nil {
		b.destroy(dev)
		return nil, fmt.Errorf("vk.MapMemory failed with %s", err)
	}
	return b, nil
}

// ensureBuffer returns b when it holds need bytes, otherwise a bigger
// replacement. b is destroyed when replaced; the caller must own it.
func ensureBuffer(b *hostBuffer, dev vk.Device, memProps vk.PhysicalDeviceMemoryProperties,
	need int, usage vk.BufferUsageFlagBits) (*hostBuffer, error) {

	if b != nil && b.size >= need {
		return b, nil
	}
	b.destroy(dev)
	return newHostBuffer(dev, memProps, bufferCapacity(need), usage)
}

// write copies data at byte offset and returns the offset after it.
func (b *hostBuffer) write(offset int, data []byte) int {
	if len(data) == 0 {
		return offset
	}
	dst := unsafe.Pointer(uintptr(b.mapped) + uintptr(offset))
	return offset + vk.Memcopy(dst, data)
}

func (b *hostBuffer) destroy(dev vk.Device) {
	if b == nil {
		return
	}
	if b.mapped != nil {
		vk.UnmapMemory(dev, b.memory)
		b.mapped = nil
	}
	vk.DestroyBuffer(dev, b.buffer, nil)
	vk.FreeMemory(dev, b.memory, nil)
}
