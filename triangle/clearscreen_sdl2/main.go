package main

import (
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vulkan-go/imgui-demos/config"
	"github.com/vulkan-go/imgui-demos/triangle"
	vk "github.com/vulkan-go/vulkan"
	"github.com/xlab/catcher"
	"github.com/xlab/closer"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	defer closer.Close()
	// fatal errors log and exit non-zero before closer gets to run
	defer catcher.Catch(
		catcher.RecvLog(true),
		catcher.RecvDie(-1),
	)

	cfg, err := config.Load(".env")
	orPanic(err)
	orPanic(config.SetupLogging(cfg.LogLevel))

	orPanic(sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS | sdl.INIT_TIMER))
	closer.Bind(sdl.Quit)

	orPanic(sdl.VulkanLoadLibrary(""))
	closer.Bind(sdl.VulkanUnloadLibrary)

	vk.SetGetInstanceProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	orPanic(vk.Init())

	app, err := triangle.New(cfg, false)
	orPanic(err)
	w, h := app.SwapchainSize()
	log.Infof("Initialized %s (clear only) with %dx%d swapchain", cfg.Window.Title, w, h)

	triangle.Run(app, cfg.Time.FrameDelay())
}

func orPanic(err interface{}) {
	switch v := err.(type) {
	case error:
		if v != nil {
			panic(err)
		}
	case vk.Result:
		if err := vk.Error(v); err != nil {
			panic(err)
		}
	case bool:
		if !v {
			panic("condition failed: != true")
		}
	}
}
