package vulkanctx

import (
	"errors"
	"fmt"
	"unsafe"

	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

const (
	validationLayer      = "VK_LAYER_KHRONOS_validation"
	debugReportExtension = "VK_EXT_debug_report"

	// descriptorsPerType sizes every entry of the shared descriptor pool.
	descriptorsPerType = 1000
)

// Config describes what the instance and logical device are created with.
type Config struct {
	AppName string
	// Debug enables the Khronos validation layer and a debug report callback.
	Debug            bool
	Layers           []string
	DeviceExtensions []string
}

func DefaultConfig(appName string) Config {
	return Config{
		AppName: appName,
		DeviceExtensions: []string{
			"VK_KHR_swapchain",
		},
	}
}

// Context owns the instance, the selected GPU, the logical device with its
// single graphics queue and the descriptor pool.
type Context struct {
	Instance       vk.Instance
	PhysicalDevice vk.PhysicalDevice
	Device         vk.Device
	QueueFamily    uint32
	Queue          vk.Queue
	DescriptorPool vk.DescriptorPool

	gpuDevices []vk.PhysicalDevice
	candidates []deviceCandidate
	selected   int
	memProps   vk.PhysicalDeviceMemoryProperties
	dbg        vk.DebugReportCallback
}

// New brings up Vulkan: instance, physical device, graphics queue family,
// logical device and descriptor pool. Whatever was created before a failure
// is released again, newest first.
func New(cfg Config, instanceExtensions []string) (*Context, error) {
	c := &Context{}
	var unwind Unwind
	defer unwind.Unwind()

	// step 1: create a Vulkan instance.
	extensions := safeStrings(instanceExtensions)
	layers := safeStrings(cfg.Layers)
	if cfg.Debug {
		layers = append(layers, safeString(validationLayer))
		extensions = append(extensions, safeString(debugReportExtension))
	}
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         vk.MakeVersion(1, 0, 0),
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PApplicationName:   safeString(cfg.AppName),
		PEngineName:        "vulkango.com\x00",
	}
	instanceCreateInfo := &vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}
	if err := vk.Error(vk.CreateInstance(instanceCreateInfo, nil, &c.Instance)); err != nil {
		return nil, fmt.Errorf("vk.CreateInstance failed with %s", err)
	}
	vk.InitInstance(c.Instance)
	unwind.Add(func() {
		vk.DestroyInstance(c.Instance, nil)
	})

	if cfg.Debug {
		dbgCreateInfo := &vk.DebugReportCallbackCreateInfo{
			SType: vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags: vk.DebugReportFlags(vk.DebugReportErrorBit |
				vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: debugReport,
		}
		if err := vk.Error(vk.CreateDebugReportCallback(c.Instance, dbgCreateInfo, nil, &c.dbg)); err != nil {
			return nil, fmt.Errorf("vk.CreateDebugReportCallback failed with %s", err)
		}
		unwind.Add(func() {
			vk.DestroyDebugReportCallback(c.Instance, c.dbg, nil)
		})
	}

	// step 2: select the GPU.
	gpus, err := getPhysicalDevices(c.Instance)
	if err != nil {
		return nil, err
	}
	c.gpuDevices = gpus
	c.candidates = make([]deviceCandidate, len(gpus))
	for i, gpu := range gpus {
		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(gpu, &props)
		props.Deref()
		var features vk.PhysicalDeviceFeatures
		vk.GetPhysicalDeviceFeatures(gpu, &features)
		features.Deref()
		c.candidates[i] = deviceCandidate{
			Name:           vk.ToString(props.DeviceName[:]),
			Type:           props.DeviceType,
			GeometryShader: features.GeometryShader.B(),
			VendorID:       props.VendorID,
			APIVersion:     props.ApiVersion,
			DriverVersion:  props.DriverVersion,
		}
	}
	c.selected = pickPhysicalDevice(c.candidates)
	c.PhysicalDevice = gpus[c.selected]
	log.WithFields(log.Fields{
		"gpu":  c.candidates[c.selected].Name,
		"type": physicalDeviceType(c.candidates[c.selected].Type),
	}).Infoln("[vulkan] selected physical device")

	vk.GetPhysicalDeviceMemoryProperties(c.PhysicalDevice, &c.memProps)
	c.memProps.Deref()

	// step 3: select the graphics queue family.
	var familyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(c.PhysicalDevice, &familyCount, nil)
	families := make([]vk.QueueFamilyProperties, familyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(c.PhysicalDevice, &familyCount, families)
	familyFlags := make([]vk.QueueFlags, len(families))
	for i := range families {
		families[i].Deref()
		familyFlags[i] = families[i].QueueFlags
	}
	family, ok := pickGraphicsQueueFamily(familyFlags)
	if !ok {
		return nil, errors.New("vulkan error: could not find a queue family with graphics support")
	}
	c.QueueFamily = family

	// step 4: create a logical device with one queue.
	queueCreateInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: c.QueueFamily,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}
	deviceExtensions := safeStrings(cfg.DeviceExtensions)
	deviceCreateInfo := &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		EnabledExtensionCount:   uint32(len(deviceExtensions)),
		PpEnabledExtensionNames: deviceExtensions,
	}
	if err := vk.Error(vk.CreateDevice(c.PhysicalDevice, deviceCreateInfo, nil, &c.Device)); err != nil {
		return nil, fmt.Errorf("vk.CreateDevice failed with %s", err)
	}
	unwind.Add(func() {
		vk.DestroyDevice(c.Device, nil)
	})
	vk.GetDeviceQueue(c.Device, c.QueueFamily, 0, &c.Queue)

	// step 5: create the descriptor pool.
	poolSizes := descriptorPoolSizes(descriptorsPerType)
	poolCreateInfo := &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       descriptorsPerType * uint32(len(poolSizes)),
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}
	if err := vk.Error(vk.CreateDescriptorPool(c.Device, poolCreateInfo, nil, &c.DescriptorPool)); err != nil {
		return nil, fmt.Errorf("vk.CreateDescriptorPool failed with %s", err)
	}

	unwind.Discard()
	return c, nil
}

// Destroy releases the descriptor pool, the debug callback, the device and
// the instance, in that order.
func (c *Context) Destroy() {
	if c == nil {
		return
	}
	if c.DescriptorPool != nil {
		vk.DestroyDescriptorPool(c.Device, c.DescriptorPool, nil)
		c.DescriptorPool = nil
	}
	if c.dbg != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(c.Instance, c.dbg, nil)
		c.dbg = vk.NullDebugReportCallback
	}
	if c.Device != nil {
		vk.DestroyDevice(c.Device, nil)
		c.Device = nil
	}
	if c.Instance != nil {
		vk.DestroyInstance(c.Instance, nil)
		c.Instance = nil
	}
	c.gpuDevices = nil
}

// WaitIdle blocks until the device has finished all submitted work.
func (c *Context) WaitIdle() {
	CheckResult(vk.DeviceWaitIdle(c.Device))
}

// MemoryProperties of the selected GPU.
func (c *Context) MemoryProperties() vk.PhysicalDeviceMemoryProperties {
	return c.memProps
}

// DeviceSummary describes one enumerated GPU.
type DeviceSummary struct {
	Name           string
	Type           string
	GeometryShader bool
	VendorID       uint32
	APIVersion     vk.Version
	DriverVersion  vk.Version
	Selected       bool
}

// PhysicalDeviceSummaries lists every enumerated GPU in enumeration order.
func (c *Context) PhysicalDeviceSummaries() []DeviceSummary {
	summaries := make([]DeviceSummary, 0, len(c.candidates))
	for i, d := range c.candidates {
		summaries = append(summaries, DeviceSummary{
			Name:           d.Name,
			Type:           physicalDeviceType(d.Type),
			GeometryShader: d.GeometryShader,
			VendorID:       d.VendorID,
			APIVersion:     vk.Version(d.APIVersion),
			DriverVersion:  vk.Version(d.DriverVersion),
			Selected:       i == c.selected,
		})
	}
	return summaries
}

func getPhysicalDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var gpuCount uint32
	err := vk.Error(vk.EnumeratePhysicalDevices(instance, &gpuCount, nil))
	if err != nil {
		err = fmt.Errorf("vk.EnumeratePhysicalDevices failed with %s", err)
		return nil, err
	}
	if gpuCount == 0 {
		err = fmt.Errorf("getPhysicalDevice: no GPUs found on the system")
		return nil, err
	}
	gpuList := make([]vk.PhysicalDevice, gpuCount)
	err = vk.Error(vk.EnumeratePhysicalDevices(instance, &gpuCount, gpuList))
	if err != nil {
		err = fmt.Errorf("vk.EnumeratePhysicalDevices failed with %s", err)
		return nil, err
	}
	return gpuList, nil
}

func debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	entry := log.WithFields(log.Fields{
		"objectType": objectType,
		"code":       messageCode,
		"layer":      pLayerPrefix,
	})
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		entry.Errorln("[vulkan]", pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0,
		flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		entry.Warnln("[vulkan]", pMessage)
	default:
		entry.Debugln("[vulkan]", pMessage)
	}
	return vk.Bool32(vk.False)
}
