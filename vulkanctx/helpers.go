package vulkanctx

import (
	"strings"

	log "github.com/sirupsen/logrus"
	as "github.com/vulkan-go/asche"
	vk "github.com/vulkan-go/vulkan"
)

// Unwind is a stack of cleanups that runs newest first.
type Unwind []func()

func (u *Unwind) Add(cleanup func()) {
	*u = append(*u, cleanup)
}

func (u *Unwind) Unwind() {
	for i := len(*u) - 1; i >= 0; i-- {
		(*u)[i]()
	}
	*u = (*u)[:0]
}

func (u *Unwind) Discard() {
	if len(*u) > 0 {
		*u = (*u)[:0]
	}
}

// CheckResult reports any result other than vk.Success. Negative results
// are fatal and panic.
func CheckResult(ret vk.Result) {
	if ret == vk.Success {
		return
	}
	log.Errorf("[vulkan] Error: VkResult = %d", ret)
	if ret < 0 {
		panic(as.NewError(ret))
	}
}

func safeString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

func safeStrings(sgs []string) []string {
	safe := make([]string, 0, len(sgs))
	for _, s := range sgs {
		safe = append(safe, safeString(s))
	}
	return safe
}
