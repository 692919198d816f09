package tensor

import "fmt"

// DeviceKind distinguishes host memory from accelerator memory.
type DeviceKind int

// Supported device kinds.
const (
	Host DeviceKind = iota
	Accelerator
)

// String returns a human-readable device kind.
func (k DeviceKind) String() string {
	switch k {
	case Host:
		return "cpu"
	case Accelerator:
		return "accel"
	default:
		return "unknown"
	}
}

// Device identifies a memory space: the host, or one accelerator by index.
type Device struct {
	Kind  DeviceKind
	Index int
}

// CPU is the host device.
var CPU = Device{Kind: Host}

// AcceleratorDevice returns the accelerator device with the given index.
func AcceleratorDevice(index int) Device {
	return Device{Kind: Accelerator, Index: index}
}

// IsHost reports whether d is host memory.
func (d Device) IsHost() bool {
	return d.Kind == Host
}

// String returns "cpu" or "accel:<index>".
func (d Device) String() string {
	if d.Kind == Host {
		return "cpu"
	}
	return fmt.Sprintf("%s:%d", d.Kind, d.Index)
}
