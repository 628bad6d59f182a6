package vulkanctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
)

func TestUnwindRunsNewestFirst(t *testing.T) {
	var order []string
	var u Unwind
	u.Add(func() { order = append(order, "instance") })
	u.Add(func() { order = append(order, "device") })
	u.Add(func() { order = append(order, "pool") })
	u.Unwind()
	assert.Equal(t, []string{"pool", "device", "instance"}, order)

	// a second unwind has nothing left to run
	u.Unwind()
	assert.Len(t, order, 3)
}

func TestUnwindDiscard(t *testing.T) {
	called := false
	var u Unwind
	u.Add(func() { called = true })
	u.Discard()
	u.Unwind()
	assert.False(t, called)
}

func TestCheckResult(t *testing.T) {
	assert.NotPanics(t, func() { CheckResult(vk.Success) })
	assert.NotPanics(t, func() { CheckResult(vk.Suboptimal) })
	assert.NotPanics(t, func() { CheckResult(vk.Timeout) })
	assert.Panics(t, func() { CheckResult(vk.ErrorOutOfDate) })
	assert.Panics(t, func() { CheckResult(vk.ErrorDeviceLost) })
}

func TestSafeStrings(t *testing.T) {
	assert.Equal(t, "VK_KHR_swapchain\x00", safeString("VK_KHR_swapchain"))
	assert.Equal(t, "VK_KHR_swapchain\x00", safeString("VK_KHR_swapchain\x00"))
	assert.Equal(t, []string{"a\x00", "b\x00"}, safeStrings([]string{"a", "b\x00"}))
	assert.Empty(t, safeStrings(nil))
}
