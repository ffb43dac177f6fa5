package sensor

import (
	"io"

	"go.bug.st/serial"
)

// BaudRate is the load-cell link speed.
const BaudRate = 115200

// Mode is the 8N1 line configuration used for every port.
var Mode = &serial.Mode{
	BaudRate: BaudRate,
	DataBits: 8,
	Parity:   serial.NoParity,
	StopBits: serial.OneStopBit,
}

// OpenSerial opens name at 115200 8N1.
func OpenSerial(name string) (io.ReadCloser, error) {
	return serial.Open(name, Mode)
}

// ListPorts returns the serial ports known to the OS.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
