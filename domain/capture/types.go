package capture

import "image"

// FrameSource provides read-only access to captured frames.
// LatestFrame returns the freshest snapshot while Running reports activity.
type FrameSource interface {
	LatestFrame() FrameSnapshot
	Running() bool
}

// Grabber produces frames from a device. Open is called when capture starts
// and Close when it stops; Grab may block until a frame is available.
type Grabber interface {
	Open() error
	Grab() (*image.RGBA, error)
	Close() error
}

// ServiceContract exposes basic lifecycle control for capture services.
type ServiceContract interface {
	Start() error
	Stop()
	Running() bool
}
