// Package serial provides the blocking serial transport of the firmware.
package serial

// A message is staged whole into the ring buffer and then drained one byte
// at a time into the transmit register. After each byte the transport
// busy-waits for the transmit-complete flag and pauses for the inter-byte
// delay the line needs. Every busy-wait is bounded by Config.Timeout and by
// the caller's context.
//
// There is no framing beyond the bytes of the message: 8-N-1 at a fixed
// baud divisor, no handshake, no checksum.
//
// Producer: firmware main loop
// Consumer: serial line (hal.Board)
