// Package tap publishes serial line traffic to outside observers.
//
// A Mux turns every transmitted or received message into a msgs.LineFrame
// and fans it out to the attached writers (MQTT, websocket and stream
// peers). Peers may also send packets back, which are handed to a Handler,
// usually to request a transmission from the firmware loop.
package tap
