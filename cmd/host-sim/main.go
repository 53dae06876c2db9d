// Command host-sim is the development console: the full core (transceiver,
// transport, msghandler, registry, gateway) running host-side against
// linedriver.Mock instead of real silicon, driven from an interactive
// shell. Grounded on bus/cmd/selftest/main.go's host-test
// harness (now deleted, see DESIGN.md) -- same "drive the real package API
// directly, print pass/fail-style results" shape, turned into a REPL
// loop instead of a fixed assertion list, with github.com/google/shlex
// tokenizing each line the way a shell would.
package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

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
	"ja-rule-go/x/shmring"
	"ja-rule-go/x/strconvx"
	"ja-rule-go/x/strx"
)

// hostPipe is the "USB bulk pipe" stand-in: a loopback byte pipe whose
// device end is handed to transport.New and whose host end the console
// reads/writes directly, so "send"/"recv" exercise the exact same framing
// internal/streamdecoder and internal/transport use on real hardware.
type hostPipe struct {
	toDevice   chan byte
	fromDevice chan byte
}

func newHostPipe() (*hostPipe, *hostPipe) {
	a := make(chan byte, 4096)
	b := make(chan byte, 4096)
	return &hostPipe{toDevice: a, fromDevice: b}, &hostPipe{toDevice: b, fromDevice: a}
}

func (p *hostPipe) Read(buf []byte) (int, error) {
	n := 0
	buf[n] = <-p.fromDevice
	n++
	for n < len(buf) {
		select {
		case b := <-p.fromDevice:
			buf[n] = b
			n++
		default:
			return n, nil
		}
	}
	return n, nil
}

func (p *hostPipe) Write(buf []byte) (int, error) {
	for _, b := range buf {
		p.toDevice <- b
	}
	return len(buf), nil
}

func main() {
	ctx := context.Background()
	clock := &coarsetimer.Timer{}
	ticker := &coarsetimer.HostTicker{Timer: clock}
	go ticker.Run(ctx)

	mock := linedriver.NewMock()
	tx := transceiver.New(mock, clock)

	devEnd, hostEnd := newHostPipe()
	link := transport.New(devEnd)

	b := bus.NewBus(4)
	sysConn := b.NewConnection("system")
	flagsConn := b.NewConnection("flags")
	proxyConn := b.NewConnection("proxy")
	flg := flags.New(flagsConn)

	uid := types.NewUID(0x7a52, 0x00000001)
	reg := registry.New()
	reg.Register(basic.New(childUID(uid, 1)))
	reg.Register(led.New(childUID(uid, 2), 16))
	reg.Register(dimmer.New(childUID(uid, 3)))
	reg.Register(movinglight.New(childUID(uid, 4), clock))
	reg.Register(network.New(childUID(uid, 5)))
	reg.Register(proxy.New(childUID(uid, 6), proxyConn))
	reg.Register(sensor.New(childUID(uid, 7)))
	reg.Activate("basic")

	gw := gateway.New(reg, uid)
	rx := gateway.NewResponderRX(gw, mock)

	h := msghandler.New(tx, link, flg, sysConn, msghandler.Identity{
		UID:      gw.UID,
		SetMode:  gw.SetMode,
		ResetAll: gw.ResetAll,
	})

	go func() {
		for {
			if err := h.Serve(); err != nil {
				fmt.Println("[host-sim] link closed:", err)
				return
			}
		}
	}()

	go func() {
		taskTicker := time.NewTicker(time.Millisecond)
		defer taskTicker.Stop()
		for range taskTicker.C {
			tx.Tasks()
			if active := reg.Active(); active != nil {
				active.Tasks()
			}
		}
	}()

	fmt.Println("ja-rule host-sim -- type 'help' for commands")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		args, err := shlex.Split(scanner.Text())
		if err != nil || len(args) == 0 {
			continue
		}
		runCommand(args, reg, gw, tx, mock, hostEnd, rx)
	}
}

func childUID(base types.UID, n byte) types.UID {
	u := base
	u[5] = n
	return u
}

func runCommand(args []string, reg *registry.Registry, gw *gateway.Gateway, tx *transceiver.Transceiver, mock *linedriver.Mock, host *hostPipe, rx *gateway.ResponderRX) {
	switch args[0] {
	case "help":
		fmt.Println("uid | mode [controller|responder] | models | activate <name> | reset | send <token> <cmdHex> <payloadHex> | recv | inject-rx <hexbyte> | rdm-rx <framehex> | rx-counters | rings | quit")

	case "uid":
		u := gw.UID()
		fmt.Println(hex.EncodeToString(u[:]))

	case "mode":
		if len(args) < 2 {
			fmt.Println(gw.Mode())
			return
		}
		switch args[1] {
		case "controller":
			gw.SetMode(types.ModeController)
		case "responder":
			gw.SetMode(types.ModeResponder)
		default:
			fmt.Println("mode must be controller or responder")
		}

	case "models":
		fmt.Println(strings.Join(reg.Names(), ", "))

	case "activate":
		name := strx.Coalesce(argAt(args, 1), "")
		if name == "" || !reg.Activate(name) {
			fmt.Println("unknown model")
		}

	case "reset":
		gw.ResetAll()

	case "send":
		if len(args) < 3 {
			fmt.Println("usage: send <tokenHex> <cmdHex> [payloadHex]")
			return
		}
		token := parseHexByte(args[1])
		cmd := parseHexU16(args[2])
		payload := []byte{}
		if len(args) > 3 {
			payload, _ = hex.DecodeString(args[3])
		}
		frame := encodeRequest(token, cmd, payload)
		if _, err := host.Write(frame); err != nil {
			fmt.Println("write error:", err)
		}

	case "recv":
		buf := make([]byte, 4096)
		n, _ := host.Read(buf)
		fmt.Println(hex.EncodeToString(buf[:n]))

	case "inject-rx":
		if len(args) < 2 {
			return
		}
		mock.FireRXByte(parseHexByte(args[1]))

	case "events":
		for _, e := range mock.Events() {
			fmt.Println(e.Kind)
		}

	case "rdm-rx":
		if len(args) < 2 {
			fmt.Println("usage: rdm-rx <framehex>  (full frame, start code through checksum)")
			return
		}
		frame, err := hex.DecodeString(args[1])
		if err != nil {
			fmt.Println("bad hex:", err)
			return
		}
		rx.StartFrame()
		for _, b := range frame {
			mock.FireRXByte(b)
		}

	case "rx-counters":
		c := rx.Counters()
		fmt.Printf("dmx=%d asc=%d rdm=%d checksum_invalid=%d msglen_invalid=%d\n",
			c.DMXFrames, c.ASCFrames, c.RDMFrames, c.RDMChecksumInvalid, c.RDMMsgLenInvalid)

	case "rings":
		txH, rxH := mock.Rings()
		if txR := shmring.Get(txH); txR != nil {
			fmt.Printf("tx: handle=%d cap=%d available=%d\n", txH, txR.Cap(), txR.Available())
		}
		if rxR := shmring.Get(rxH); rxR != nil {
			fmt.Printf("rx: handle=%d cap=%d available=%d\n", rxH, rxR.Cap(), rxR.Available())
		}

	case "quit", "exit":
		os.Exit(0)

	default:
		fmt.Println("unknown command; type 'help'")
	}
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func parseHexByte(s string) byte {
	v, _ := strconvx.ParseUint(s, 16, 8)
	return byte(v)
}

func parseHexU16(s string) uint16 {
	v, _ := strconv.ParseUint(s, 16, 16)
	return uint16(v)
}

// encodeRequest builds one inbound host->device frame in the layout
// internal/streamdecoder reassembles (spec §4.5): SOM, token, command
// (little-endian), payload length (little-endian), payload, EOM.
func encodeRequest(token byte, cmd uint16, payload []byte) []byte {
	buf := make([]byte, 0, 7+len(payload))
	buf = append(buf, 0x5A, token, byte(cmd), byte(cmd>>8), byte(len(payload)), byte(len(payload)>>8))
	buf = append(buf, payload...)
	buf = append(buf, 0xA5)
	return buf
}
