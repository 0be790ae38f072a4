// Package firmware is the application running on the board: it boots the
// hardware, blinks the status LED once, then transmits a greeting over the
// serial line forever.
//
// All serial traffic happens on the foreground loop. Other goroutines (the
// shell, line taps) ask for traffic by posting SendRequest and
// ReceiveRequest messages to the loop.
package firmware
