// Command pldm-fd runs the firmware device role's update engine: it
// binds a session store, a flash region map, and a command dispatcher,
// then serves process_message/session_status/ping over a
// local control socket until signalled to stop, mirroring the shape of
// kryptco-kr's krd daemon (krd/daemon.go).
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/op/go-logging"

	"github.com/cerberusfw/pldm"
	"github.com/cerberusfw/pldm/devicemgr"
	"github.com/cerberusfw/pldm/dispatch"
	"github.com/cerberusfw/pldm/flash"
	"github.com/cerberusfw/pldm/session"
	"github.com/cerberusfw/pldm/telemetry"
	"github.com/cerberusfw/pldm/transport"
)

func main() {
	socketPath := flag.String("socket", "/var/run/pldm-fd.sock", "control socket path")
	storePath := flag.String("store", "/var/lib/pldm-fd/sessions.db", "session store path")
	snsTopic := flag.String("sns-topic", os.Getenv("PLDM_FLEET_TOPIC_ARN"), "fleet telemetry SNS topic ARN")
	snsRegion := flag.String("sns-region", "us-east-1", "AWS region for fleet telemetry")
	flag.Parse()

	pldm.SetupLogging("pldm-fd", logging.NOTICE, true)

	store, err := session.Open(*storePath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	devices := devicemgr.NewRegistry()

	d := dispatch.New(store, devices).
		WithFlash(buildFlashMap()).
		WithTelemetry(telemetry.NewPublisher(*snsTopic, *snsRegion))

	listener, err := transport.Listen(*socketPath)
	if err != nil {
		log.Fatal(err)
	}
	defer listener.Close()

	cl := transport.NewControlListener(d)
	go func() {
		if err := cl.Serve(listener); err != nil {
			log.Println("control listener stopped:", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	sig := <-stop
	log.Println("stopping with signal", sig)
}

// buildFlashMap constructs the region bindings a real deployment would
// derive from the package header's component table; until device
// enrollment is wired to the control plane, every region binds to an
// in-memory Mock so the daemon is runnable standalone.
func buildFlashMap() *flash.Map {
	m := flash.NewMap()
	m.Bind(flash.Region{Name: flash.RegionPackageData, Device: "package", BaseAddress: 0, Size: 1 << 20}, flash.NewMock(1<<20))
	m.Bind(flash.Region{Name: flash.RegionDeviceMetaData, Device: "metadata", BaseAddress: 0, Size: 4096}, flash.NewMock(4096))
	return m
}
