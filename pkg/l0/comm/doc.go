// Package comm provides the L0 bus servo protocol support.
package comm

// L0 protocol is communicated between the controller (master) and the
// servos (slaves) sharing a single half-duplex serial line.
//
// Every frame starts with the sync header 0x55 0x55, followed by the
// address, the length (opcode + parameters + checksum), the opcode,
// the parameters and a checksum byte. A servo executes a frame only if
// the address matches its own ID or is the broadcast address, and only
// replies to read commands addressed to it individually.
//
// The receiver resynchronizes on the sync header one byte at a time,
// so noise, partial echoes and spurious sync bytes on the line are
// skipped until a complete frame is found or the noise limit is hit.
//
// Producer: controller (requests), servos (replies)
// Consumer: servos (requests), controller (replies)
