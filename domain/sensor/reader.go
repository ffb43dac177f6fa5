package sensor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	"go.bug.st/serial"
)

const readChunk = 256

// Reader pumps a serial byte stream into the weight register.
type Reader struct {
	Port     io.ReadCloser
	Register *Register
	// Accept, when set, replaces the direct register store; a false return
	// drops the reading.
	Accept func(float64) bool
	// OnWeight is called after each accepted reading. Optional.
	OnWeight func(float64)
	Logger   *slog.Logger
}

// Run reads until ctx is cancelled, the port reaches EOF, or a transport
// error occurs. The port is closed on every exit path. Cancellation and
// end of stream return nil.
func (r *Reader) Run(ctx context.Context) error {
	if r.Port == nil {
		return errors.New("sensor: nil port")
	}
	var closeOnce sync.Once
	closePort := func() { closeOnce.Do(func() { _ = r.Port.Close() }) }
	defer closePort()

	stop := context.AfterFunc(ctx, closePort)
	defer stop()

	var dec LineDecoder
	buf := make([]byte, readChunk)
	for {
		n, err := r.Port.Read(buf)
		if n > 0 {
			for _, line := range dec.Feed(buf[:n]) {
				r.handleLine(ctx, line)
			}
		}
		if err != nil {
			if ctx.Err() != nil || isBenignReadError(err) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// handleLine stores one reading. Readings decoded after cancellation are
// dropped so a disconnect that zeroed the register stays at zero.
func (r *Reader) handleLine(ctx context.Context, line string) {
	w, err := ParseWeight(line)
	if err != nil {
		if r.Logger != nil {
			r.Logger.Warn("serial record rejected", "line", line, "error", err)
		}
		return
	}
	if ctx.Err() != nil {
		return
	}
	if r.Accept != nil {
		if !r.Accept(w) {
			return
		}
	} else {
		r.Register.Store(w)
	}
	if r.OnWeight != nil {
		r.OnWeight(w)
	}
}

// isBenignReadError recognises errors produced by closing the port ourselves.
func isBenignReadError(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
		return true
	}
	var pe *serial.PortError
	if errors.As(err, &pe) && pe.Code() == serial.PortClosed {
		return true
	}
	return false
}
