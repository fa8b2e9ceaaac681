// Package telemetry polls servo status on a bus and streams the
// samples to MQTT, WebSocket subscribers and record files. Remote
// commands are accepted over MQTT.
//
// Topics under the configured prefix:
//
//	<source>/meta               retained, online state and polled ids
//	<source>/servo/<id>/status  status samples
//	<source>/servo/<id>/cmd     commands to the servo
//	<source>/servo/<id>/result  results of commands
//
// Payloads are google.protobuf.Struct in binary wire format.
package telemetry
