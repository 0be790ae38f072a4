// Package sh provides an interactive shell to poke a running firmware:
// send and receive bytes, inject traffic into the simulated line, drive
// the status LED and print counters.
package sh
