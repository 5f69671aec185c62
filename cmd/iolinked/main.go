// Command iolinked runs an IO-Link device core against a host serial port,
// the IO-Link counterpart to the teacher's cmd/controller: a thin flag-
// parsing main that builds a platform-specific Physical Layer and then
// hands off to the core's cooperative poll loop.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"iolinke.dev/config"
	"iolinke.dev/device"
)

var (
	serialDev   = flag.String("device", "/dev/ttyAMA0", "serial device wired to the Master's C/Q line")
	minCycleMs  = flag.Float64("min-cycle-ms", 2.0, "MinCycleTime advertised in the Direct Parameter Page, in milliseconds")
	vendorName  = flag.String("vendor-name", "Acme Sensors", "VendorName parameter (ISDU index 0x10)")
	productName = flag.String("product-name", "Widget", "ProductName parameter (ISDU index 0x12)")
	pollPeriod  = flag.Duration("poll-period", 500*time.Microsecond, "host poll-loop period")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Flags() &^ (log.Ldate | log.Ltime))
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "iolinked: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.New(config.Config{
		PreOperate: config.StartupPhase{ODLength: 8},
		Operate: config.OperatePhase{
			ODLength:    8,
			PDInLength:  config.PDLength{Unit: config.Octet, N: 2},
			PDOutLength: config.PDLength{Unit: config.Octet, N: 2},
		},
		Timing: config.Timing{MinCycleTimeMs: *minCycleMs},
		Vendor: config.Vendor{
			MajorRev:    1,
			MinorRev:    1,
			VendorID:    [2]byte{0x00, 0x01},
			DeviceID:    [3]byte{0x00, 0x00, 0x01},
			FunctionID:  [2]byte{0x00, 0x00},
			VendorName:  *vendorName,
			ProductName: *productName,
		},
		Warn: func(format string, args ...any) { log.Printf("config: "+format, args...) },
	})
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	phys, err := openPhysicalLayer(*serialDev)
	if err != nil {
		return fmt.Errorf("physical layer: %w", err)
	}
	if closer, ok := phys.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	onOutputPD := func(data []byte) {
		log.Printf("iolinked: output PD = % x", data)
	}
	onEventConfirmed := func() {
		log.Printf("iolinked: event confirmed by Master")
	}
	dev, err := device.New(cfg, phys, onOutputPD, onEventConfirmed, log.Printf)
	if err != nil {
		return fmt.Errorf("device: %w", err)
	}

	log.Printf("iolinked: polling %s every %s", *serialDev, *pollPeriod)
	ticker := time.NewTicker(*pollPeriod)
	defer ticker.Stop()
	for range ticker.C {
		if err := dev.Poll(); err != nil {
			return fmt.Errorf("poll: %w", err)
		}
	}
	return nil
}
