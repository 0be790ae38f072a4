// Package env assembles a running firmware from configuration: the board,
// the firmware on top of it, and the taps publishing its serial line.
package env
