// Command pldm-ua is the update agent's operator-facing CLI: query a
// device's identifiers and firmware parameters, and drive a
// RequestUpdate against the local pldm-fd daemon over its control
// socket, mirroring the subcommand-registration style of kryptco-kr's
// src/kr/kr.go.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/cerberusfw/pldm"
	"github.com/cerberusfw/pldm/codec"
	"github.com/cerberusfw/pldm/instanceid"
	"github.com/cerberusfw/pldm/state"
	"github.com/cerberusfw/pldm/transport"
)

func socketFlag(c *cli.Context) string {
	if s := c.GlobalString("socket"); s != "" {
		return s
	}
	return "/var/run/pldm-fd.sock"
}

func queryCommand(c *cli.Context) error {
	eid := uint8(c.Int("eid"))
	client := transport.NewClient(socketFlag(c))

	buf := make([]byte, 16)
	n, err := codec.EncodeQueryDeviceIdentifiersRequest((&instanceid.Allocator{}).Next(), buf)
	if err != nil {
		return err
	}
	_, reply, err := client.ProcessMessage(eid, buf[:n])
	if err != nil {
		return err
	}
	resp, _, err := codec.DecodeQueryDeviceIdentifiersResponse(reply)
	if err != nil {
		return err
	}
	if resp.CompletionCode != pldm.CcSuccess {
		fmt.Println(pldm.Red(fmt.Sprintf("QueryDeviceIdentifiers failed: %s", resp.CompletionCode)))
		return nil
	}
	if vid, did, svid, sid, ok := codec.PCIDescriptors(resp.Descriptors); ok {
		fmt.Println(pldm.Green(fmt.Sprintf("PCI VID=%04x DID=%04x SVID=%04x SID=%04x", vid, did, svid, sid)))
	}
	for _, d := range resp.Descriptors {
		fmt.Printf("  descriptor type=0x%04x value=% x\n", d.Type, d.Value)
	}
	return nil
}

func paramsCommand(c *cli.Context) error {
	eid := uint8(c.Int("eid"))
	client := transport.NewClient(socketFlag(c))

	buf := make([]byte, 16)
	n, err := codec.EncodeGetFirmwareParametersRequest((&instanceid.Allocator{}).Next(), buf)
	if err != nil {
		return err
	}
	_, reply, err := client.ProcessMessage(eid, buf[:n])
	if err != nil {
		return err
	}
	fp, _, err := codec.DecodeGetFirmwareParametersResponse(reply)
	if err != nil {
		return err
	}
	if fp.CompletionCode != pldm.CcSuccess {
		fmt.Println(pldm.Red(fmt.Sprintf("GetFirmwareParameters failed: %s", fp.CompletionCode)))
		return nil
	}
	fmt.Println(pldm.Cyan(fmt.Sprintf("active=%q pending=%q components=%d",
		fp.ActiveCompImgSetVerStr, fp.PendingCompImgSetVerStr, fp.ComponentCount)))
	return nil
}

func updateCommand(c *cli.Context) error {
	eid := uint8(c.Int("eid"))
	version := c.String("version")
	if version == "" {
		return fmt.Errorf("--version is required")
	}
	client := transport.NewClient(socketFlag(c))

	buf := make([]byte, 64)
	n, err := codec.EncodeRequestUpdateRequest((&instanceid.Allocator{}).Next(), codec.RequestUpdateRequest{
		MaxTransferSize:           512,
		NumberOfComponents:        1,
		MaxOutstandingTransferReq: 1,
		CompImageSetVerStrType:    codec.VerStrTypeASCII,
		CompImageSetVerStrLength:  uint8(len(version)),
		CompImageSetVerStr:        []byte(version),
	}, buf)
	if err != nil {
		return err
	}
	_, reply, err := client.ProcessMessage(eid, buf[:n])
	if err != nil {
		return err
	}
	resp, _, err := codec.DecodeRequestUpdateResponse(reply)
	if err != nil {
		return err
	}
	if resp.CompletionCode != pldm.CcSuccess {
		fmt.Println(pldm.Red(fmt.Sprintf("RequestUpdate failed: %s", resp.CompletionCode)))
		return nil
	}
	fmt.Println(pldm.PhaseColor(state.LearnComponents.String())(fmt.Sprintf(
		"update started for EID %d, now in %s", eid, state.LearnComponents)))
	return nil
}

func statusCommand(c *cli.Context) error {
	eid := uint8(c.Int("eid"))
	client := transport.NewClient(socketFlag(c))

	buf := make([]byte, 16)
	n, err := codec.EncodeGetStatusRequest((&instanceid.Allocator{}).Next(), buf)
	if err != nil {
		return err
	}
	_, reply, err := client.ProcessMessage(eid, buf[:n])
	if err != nil {
		return err
	}
	resp, _, err := codec.DecodeGetStatusResponse(reply)
	if err != nil {
		return err
	}
	name := state.State(resp.CurrentState).String()
	fmt.Println(pldm.PhaseColor(name)(fmt.Sprintf("EID %d: %s (%d%%)", eid, name, resp.ProgressPercent)))
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "pldm-ua"
	app.Usage = "drive a firmware update against a local pldm-fd daemon"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "socket", Usage: "pldm-fd control socket path"},
	}
	app.Commands = []cli.Command{
		{
			Name:  "query",
			Usage: "print a device's descriptors",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "eid", Usage: "peer endpoint ID", Value: 0},
			},
			Action: queryCommand,
		},
		{
			Name:  "params",
			Usage: "print a device's firmware parameters",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "eid", Usage: "peer endpoint ID", Value: 0},
			},
			Action: paramsCommand,
		},
		{
			Name:  "update",
			Usage: "begin a firmware update",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "eid", Usage: "peer endpoint ID", Value: 0},
				cli.StringFlag{Name: "version", Usage: "candidate component version string"},
			},
			Action: updateCommand,
		},
		{
			Name:  "status",
			Usage: "print a peer's current FWUP state",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "eid", Usage: "peer endpoint ID", Value: 0},
			},
			Action: statusCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, pldm.Red(err.Error()))
		os.Exit(1)
	}
}
