package sinks

import (
	"context"
	"io"
	"sync"

	serial "github.com/tarm/goserial"

	"github.com/mindwheel/mindwheel/internal/log"
	"github.com/mindwheel/mindwheel/internal/types"
)

// Actuator forwards classified actions to the external actuator as
// short command words over a serial port. A write failure closes the
// port and retries on the next event; events arriving while the port
// is down are dropped rather than queued, since the actuator is a live
// control surface and stale commands must not replay.
type Actuator struct {
	device string
	baud   int

	port io.ReadWriteCloser
}

// NewActuator creates a serial actuator sink. The port is opened
// lazily on the first event so a disconnected actuator does not block
// startup.
func NewActuator(device string, baud int) *Actuator {
	if baud == 0 {
		baud = 9600
	}
	return &Actuator{device: device, baud: baud}
}

// StartSink implements Sink.
func (a *Actuator) StartSink(ctx context.Context, wg *sync.WaitGroup) chan<- types.Event {
	c := make(chan types.Event, 10)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer a.closePort()
		for {
			select {
			case event := <-c:
				if event.Failed {
					continue
				}
				a.send(event.Action)
			case <-ctx.Done():
				return
			}
		}
	}()
	return c
}

func (a *Actuator) send(action types.ActionLabel) {
	if a.port == nil {
		if !a.openPort() {
			return
		}
	}
	cmd := action.Command()
	if cmd == "" {
		return
	}
	if _, err := a.port.Write([]byte(cmd + "\n")); err != nil {
		log.Errorf("actuator write to %s failed: %v", a.device, err)
		a.closePort()
		return
	}
	log.Debugf("actuator command sent: %s", cmd)
}

func (a *Actuator) openPort() bool {
	sc := &serial.Config{Name: a.device, Baud: a.baud}
	port, err := serial.OpenPort(sc)
	if err != nil {
		log.Errorf("failed to open actuator serial port %s: %v", a.device, err)
		return false
	}
	log.Infof("actuator connected on %s at %d baud", a.device, a.baud)
	a.port = port
	return true
}

func (a *Actuator) closePort() {
	if a.port != nil {
		a.port.Close()
		a.port = nil
	}
}
