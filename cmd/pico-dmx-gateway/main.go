// Command pico-dmx-gateway is the Pico board entrypoint: it owns every
// board-specific concern spec's external-collaborators list keeps out of
// the core (UART/GPIO pin assignment, USB CDC bring-up) and wires the
// result into internal/transceiver, internal/transport, internal/flags,
// internal/msghandler, internal/registry and internal/gateway. Grounded on
// cmd/pico-hal-main/main.go: same board-settle sleep, same
// bus.NewBus/NewConnection bootstrap, same no-fmt println-only logging.
package main

import (
	"context"
	"time"

	"machine"

	"ja-rule-go/bus"
	"ja-rule-go/internal/coarsetimer"
	"ja-rule-go/internal/flags"
	"ja-rule-go/internal/gateway"
	"ja-rule-go/internal/linedriver"
	"ja-rule-go/internal/msghandler"
	"ja-rule-go/internal/registry"
	"ja-rule-go/internal/responder/models/basic"
	"ja-rule-go/internal/responder/models/dimmer"
	"ja-rule-go/internal/responder/models/led"
	"ja-rule-go/internal/responder/models/movinglight"
	"ja-rule-go/internal/responder/models/network"
	"ja-rule-go/internal/responder/models/proxy"
	"ja-rule-go/internal/responder/models/sensor"
	"ja-rule-go/internal/transceiver"
	"ja-rule-go/internal/transport"
	"ja-rule-go/types"
)

func main() {
	time.Sleep(3 * time.Second)
	ctx := context.Background()

	println("[main] bootstrapping bus ...")
	b := bus.NewBus(4)
	sysConn := b.NewConnection("system")
	flagsConn := b.NewConnection("flags")
	proxyConn := b.NewConnection("proxy")

	clock := &coarsetimer.Timer{}
	ticker := &coarsetimer.HostTicker{Timer: clock}
	go ticker.Run(ctx)

	println("[main] configuring RS485 UART ...")
	line := newHWLine(0, machine.UART0_TX_PIN, machine.UART0_RX_PIN, machine.GP2, machine.GP3)
	tx := transceiver.New(line, clock)

	println("[main] configuring USB CDC transport ...")
	link := transport.New(machine.Serial)
	flg := flags.New(flagsConn)

	uid := types.NewUID(0x7a52, 0x00000001) // "zR" -- Ja Rule's registered manufacturer ID placeholder
	reg := registry.New()
	reg.Register(basic.New(childUID(uid, 1)))
	reg.Register(led.New(childUID(uid, 2), 16))
	reg.Register(dimmer.New(childUID(uid, 3)))
	reg.Register(movinglight.New(childUID(uid, 4), clock))
	reg.Register(network.New(childUID(uid, 5)))
	reg.Register(proxy.New(childUID(uid, 6), proxyConn))
	reg.Register(sensor.New(childUID(uid, 7)))
	// No host command selects which model is active (CmdSetMode only
	// flips controller/responder); "basic" ships pre-activated until one
	// exists (see DESIGN.md).
	reg.Activate("basic")

	gw := gateway.New(reg, uid)
	rx := gateway.NewResponderRX(gw, line)
	line.OnCaptureEdge(func(c linedriver.Capture) {
		if c.Edge == linedriver.EdgeFalling {
			rx.StartFrame()
		}
	})
	line.EnableIRQ(linedriver.IRQInputCapture)

	h := msghandler.New(tx, link, flg, sysConn, msghandler.Identity{
		UID:      gw.UID,
		SetMode:  gw.SetMode,
		ResetAll: gw.ResetAll,
	})

	println("[main] entering main loop ...")
	go func() {
		for {
			if err := h.Serve(); err != nil {
				println("[main] transport error, reconfiguring USB CDC")
				link.Reconfigure(machine.Serial)
			}
		}
	}()

	taskTicker := time.NewTicker(time.Millisecond)
	defer taskTicker.Stop()
	for range taskTicker.C {
		line.Poll()
		tx.Tasks()
		if active := reg.Active(); active != nil {
			active.Tasks()
		}
	}
}

// childUID gives each bundled responder model a distinct UID derived from
// the gateway's base UID, the same low-byte convention proxy.New uses for
// its own children (SPEC_FULL.md open question 4).
func childUID(base types.UID, n byte) types.UID {
	u := base
	u[5] = n
	return u
}
