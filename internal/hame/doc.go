// Package hame implements the MQTT status protocol of Hame energy
// storage devices (B2500 family).
//
// This package manages:
//   - Parsing the device's comma-separated key=value status payloads
//   - Schema-driven raw field decoding with per-field error attribution
//   - Transforming raw status words into a typed device snapshot
//   - The device session: request a refresh, await the next snapshot
//   - The transport event loop and its disconnect state machine
//
// # Protocol
//
// The device publishes its status as ASCII text on
// hame_energy/{type}/device/{mac}/ctrl in response to the refresh
// command "cd=1" published on hame_energy/{type}/App/{mac}/ctrl.
// A status payload looks like:
//
//	p1=1,p2=1,w1=23,w2=23,pe=99,o1=1,o2=1,do=80,lv=200,cj=2,...
//
// Small status bitfields (solar input, output, host battery) are packed
// into single fields and unpacked into independent flags by the domain
// transform. There is no request/response correlation on the wire: a
// query simply awaits the next status newer than what it started with.
//
// # Usage
//
//	dev, loop, err := hame.NewDevice(client, hame.DeviceOptions{
//	    Type: "HMA-1",
//	    MAC:  "0123456789ab",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go loop.Run(ctx)
//
//	info, err := dev.Info(ctx)
//
// # Concurrency
//
// One Loop exclusively owns the transport's event stream and is the
// sole writer to the latest-snapshot slot; Device handles only read the
// slot and publish commands, and may be shared across goroutines.
package hame
