// Package hal defines the hardware boundary of the serial firmware.
//
// The core (ring buffer, serial transport, firmware loop) only talks to a
// Board. Pin directions, register values, timer preload and interrupt
// vectors are the Board's business.
package hal
