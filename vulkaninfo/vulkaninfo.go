package vulkaninfo

import (
	"fmt"

	"github.com/vulkan-go/imgui-demos/vulkanctx"
	"github.com/vulkan-go/imgui-demos/vulkanwindow"
	vk "github.com/vulkan-go/vulkan"
	"github.com/xlab/tablewriter"
)

func getInstanceLayers() (layerNames []string, err error) {
	var instanceLayerLen uint32
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&instanceLayerLen, nil)); err != nil {
		return nil, fmt.Errorf("vk.EnumerateInstanceLayerProperties failed with %s", err)
	}
	instanceLayers := make([]vk.LayerProperties, instanceLayerLen)
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&instanceLayerLen, instanceLayers)); err != nil {
		return nil, fmt.Errorf("vk.EnumerateInstanceLayerProperties failed with %s", err)
	}
	for _, layer := range instanceLayers {
		layer.Deref()
		layerNames = append(layerNames,
			vk.ToString(layer.LayerName[:]))
	}
	return layerNames, nil
}

func getDeviceLayers(gpu vk.PhysicalDevice) (layerNames []string, err error) {
	var deviceLayerLen uint32
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(gpu, &deviceLayerLen, nil)); err != nil {
		return nil, fmt.Errorf("vk.EnumerateDeviceLayerProperties failed with %s", err)
	}
	deviceLayers := make([]vk.LayerProperties, deviceLayerLen)
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(gpu, &deviceLayerLen, deviceLayers)); err != nil {
		return nil, fmt.Errorf("vk.EnumerateDeviceLayerProperties failed with %s", err)
	}
	for _, layer := range deviceLayers {
		layer.Deref()
		layerNames = append(layerNames,
			vk.ToString(layer.LayerName[:]))
	}
	return layerNames, nil
}

func getInstanceExtensions() (extNames []string, err error) {
	var instanceExtLen uint32
	if err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &instanceExtLen, nil)); err != nil {
		return nil, fmt.Errorf("vk.EnumerateInstanceExtensionProperties failed with %s", err)
	}
	instanceExt := make([]vk.ExtensionProperties, instanceExtLen)
	if err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &instanceExtLen, instanceExt)); err != nil {
		return nil, fmt.Errorf("vk.EnumerateInstanceExtensionProperties failed with %s", err)
	}
	for _, ext := range instanceExt {
		ext.Deref()
		extNames = append(extNames,
			vk.ToString(ext.ExtensionName[:]))
	}
	return extNames, nil
}

func getDeviceExtensions(gpu vk.PhysicalDevice) (extNames []string, err error) {
	var deviceExtLen uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(gpu, "", &deviceExtLen, nil)); err != nil {
		return nil, fmt.Errorf("vk.EnumerateDeviceExtensionProperties failed with %s", err)
	}
	deviceExt := make([]vk.ExtensionProperties, deviceExtLen)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(gpu, "", &deviceExtLen, deviceExt)); err != nil {
		return nil, fmt.Errorf("vk.EnumerateDeviceExtensionProperties failed with %s", err)
	}
	for _, ext := range deviceExt {
		ext.Deref()
		extNames = append(extNames,
			vk.ToString(ext.ExtensionName[:]))
	}
	return extNames, nil
}

// Report renders the selected device, every enumerated GPU, the swapchain
// chosen for win and the available extensions and layers as a table.
func Report(ctx *vulkanctx.Context, win *vulkanwindow.Window) (string, error) {
	table := tablewriter.CreateTable()
	table.UTF8Box()
	table.AddTitle("VULKAN PROPERTIES AND SURFACE CAPABILITES")
	addList := func(title string, items []string) {
		table.AddSeparator()
		table.AddRow(title, "")
		for i, item := range items {
			table.AddRow(i+1, item)
		}
	}

	gpus := ctx.PhysicalDeviceSummaries()
	for _, gpu := range gpus {
		if !gpu.Selected {
			continue
		}
		table.AddRow("Physical Device Name", gpu.Name)
		table.AddRow("Physical Device Vendor", fmt.Sprintf("%x", gpu.VendorID))
		table.AddRow("Physical Device Type", gpu.Type)
		table.AddRow("API Version", gpu.APIVersion)
		table.AddRow("Driver Version", gpu.DriverVersion)
		table.AddRow("Graphics queue family", ctx.QueueFamily)
	}
	table.AddRow("Physical GPUs", len(gpus))
	for i, row := range gpuRows(gpus) {
		table.AddRow(i+1, row)
	}

	if win != nil && win.Surface != vk.NullSurface {
		var surfaceCapabilities vk.SurfaceCapabilities
		ret := vk.GetPhysicalDeviceSurfaceCapabilities(ctx.PhysicalDevice, win.Surface, &surfaceCapabilities)
		if err := vk.Error(ret); err != nil {
			return "", fmt.Errorf("vk.GetPhysicalDeviceSurfaceCapabilities failed with %s", err)
		}
		surfaceCapabilities.Deref()
		surfaceCapabilities.CurrentExtent.Deref()
		surfaceCapabilities.MinImageExtent.Deref()
		surfaceCapabilities.MaxImageExtent.Deref()

		table.AddSeparator()
		table.AddRow("Image count", fmt.Sprintf("%d - %d",
			surfaceCapabilities.MinImageCount, surfaceCapabilities.MaxImageCount))
		table.AddRow("Array layers", fmt.Sprintf("%d",
			surfaceCapabilities.MaxImageArrayLayers))
		table.AddRow("Image size (current)", fmt.Sprintf("%dx%d",
			surfaceCapabilities.CurrentExtent.Width, surfaceCapabilities.CurrentExtent.Height))
		table.AddRow("Image size (extent)", fmt.Sprintf("%dx%d - %dx%d",
			surfaceCapabilities.MinImageExtent.Width, surfaceCapabilities.MinImageExtent.Height,
			surfaceCapabilities.MaxImageExtent.Width, surfaceCapabilities.MaxImageExtent.Height))
		table.AddRow("Usage flags", fmt.Sprintf("%02x",
			surfaceCapabilities.SupportedUsageFlags))
		table.AddRow("Current transform", fmt.Sprintf("%02x",
			surfaceCapabilities.CurrentTransform))
		table.AddRow("Allowed transforms", fmt.Sprintf("%02x",
			surfaceCapabilities.SupportedTransforms))

		table.AddSeparator()
		table.AddRow("Swapchain format", fmt.Sprintf("%d", win.SurfaceFormat.Format))
		table.AddRow("Swapchain present mode", presentModeName(win.PresentMode))
		table.AddRow("Swapchain images", fmt.Sprintf("%d (%dx%d)", win.ImageCount, win.Width, win.Height))
		table.AddRow("Swapchain pre-transform", fmt.Sprintf("%02x", win.PreTransform))
	}

	instanceExt, err := getInstanceExtensions()
	if err != nil {
		return "", err
	}
	addList("INSTANCE EXTENSIONS", instanceExt)

	deviceExt, err := getDeviceExtensions(ctx.PhysicalDevice)
	if err != nil {
		return "", err
	}
	addList("DEVICE EXTENSIONS", deviceExt)

	instanceLayers, err := getInstanceLayers()
	if err != nil {
		return "", err
	}
	if len(instanceLayers) > 0 {
		addList("INSTANCE LAYERS", instanceLayers)
	}

	deviceLayers, err := getDeviceLayers(ctx.PhysicalDevice)
	if err != nil {
		return "", err
	}
	if len(deviceLayers) > 0 {
		addList("DEVICE LAYERS", deviceLayers)
	}

	return table.Render(), nil
}

// gpuRows describes each GPU on one line, the selected one marked with '*'.
func gpuRows(gpus []vulkanctx.DeviceSummary) []string {
	rows := make([]string, 0, len(gpus))
	for _, gpu := range gpus {
		mark := " "
		if gpu.Selected {
			mark = "*"
		}
		geom := "no geometry shader"
		if gpu.GeometryShader {
			geom = "geometry shader"
		}
		rows = append(rows, fmt.Sprintf("%s %s (%s, %s)", mark, gpu.Name, gpu.Type, geom))
	}
	return rows
}

func presentModeName(mode vk.PresentMode) string {
	switch mode {
	case vk.PresentModeImmediate:
		return "IMMEDIATE"
	case vk.PresentModeMailbox:
		return "MAILBOX"
	case vk.PresentModeFifo:
		return "FIFO"
	case vk.PresentModeFifoRelaxed:
		return "FIFO_RELAXED"
	default:
		return fmt.Sprintf("%d", mode)
	}
}
