package main

import (
	"fmt"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"
	"github.com/vulkan-go/imgui-demos/config"
	"github.com/vulkan-go/imgui-demos/vulkanctx"
	"github.com/vulkan-go/imgui-demos/vulkaninfo"
	"github.com/vulkan-go/imgui-demos/vulkanwindow"
	vk "github.com/vulkan-go/vulkan"
	"github.com/xlab/catcher"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	defer catcher.Catch(
		catcher.RecvLog(true),
		catcher.RecvDie(-1),
	)

	cfg, err := config.Load(".env")
	orPanic(err)
	orPanic(config.SetupLogging(cfg.LogLevel))

	orPanic(sdl.Init(sdl.INIT_VIDEO))
	defer sdl.Quit()
	orPanic(sdl.VulkanLoadLibrary(""))
	defer sdl.VulkanUnloadLibrary()

	vk.SetGetInstanceProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	orPanic(vk.Init())

	window, err := sdl.CreateWindow("Vulkan Info",
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		640, 480, sdl.WINDOW_VULKAN|sdl.WINDOW_HIDDEN)
	orPanic(err)
	defer window.Destroy()

	ctxCfg := vulkanctx.DefaultConfig("VulkanInfo")
	ctxCfg.Debug = cfg.Renderer.Debug
	ctx, err := vulkanctx.New(ctxCfg, window.VulkanGetInstanceExtensions())
	orPanic(err)
	defer ctx.Destroy()

	surfPtr, err := window.VulkanCreateSurface(ctx.Instance)
	orPanic(err)
	surface := vk.SurfaceFromPointer(surfPtr)
	win, err := vulkanwindow.Setup(ctx, surface, 640, 480, vulkanwindow.Options{
		MinImageCount:      cfg.Renderer.MinImageCount,
		UnlimitedFrameRate: cfg.Renderer.UnlimitedFrameRate,
	})
	if err != nil {
		vk.DestroySurface(ctx.Instance, surface, nil)
		panic(err)
	}
	defer win.Destroy(ctx)

	report, err := vulkaninfo.Report(ctx, win)
	orPanic(err)
	fmt.Println("\n\n" + report)
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
