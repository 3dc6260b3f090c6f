// Package nats exposes the LED ring over NATS.
//
// # Architecture
//
//   - Server: optional embedded NATS server running in the daemon (ledring serve)
//   - Bridge: subscribes to command subjects and publishes device events from the event bus
//   - Publisher: client used by the CLI to hand a command to a running daemon
//
// # Subject Hierarchy
//
//	ledring.commands        # Commands for the ring (client → daemon, request/reply optional)
//	ledring.device.lines    # Lines read from the device (daemon → clients)
//	ledring.device.state    # Serial connection state changes (daemon → clients)
//
// Commands are either a JSON CommandMessage or the bare wire command text.
// The package uses core NATS only (no JetStream). The daemon keeps running
// when NATS is unreachable.
//
// # Debugging with nats CLI
//
// Watch everything the daemon publishes:
//
//	nats sub "ledring.device.>"
//
// Send a command and wait for the reply:
//
//	nats req ledring.commands '{"command":"rgb:255,0,0"}'
//
// Or as plain text:
//
//	nats pub ledring.commands "pulse:0,0,255,2"
package nats
