// Package tty implements a board backed by a host serial device.
//
// The baud rate generator divisor and word format written by the core are
// translated into termios settings, the status LED is mapped onto the RTS
// modem line. Only Linux is supported.
package tty
