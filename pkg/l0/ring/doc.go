// Package ring provides the fixed-capacity byte ring used to stage
// serial messages.
package ring

// The buffer is shared between one foreground context and interrupt
// handlers. Every head/tail/size update happens inside a critical section
// supplied by the board (disabling interrupts), so a handler never
// observes a half-applied update.
//
// Producer: serial transport (staging)
// Consumer: serial transport (draining)
