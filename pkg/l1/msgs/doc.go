// Package msgs provides the L1 wire schema: line frames published by the
// taps whenever bytes move on the serial line.
package msgs
