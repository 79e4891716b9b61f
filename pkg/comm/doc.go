// Package comm moves wake packets over byte streams and message
// transports.
package comm

// The codec in pkg/wake works on one delimited frame at a time. This
// package supplies the rest: a Splitter locating frame boundaries on
// a continuous byte stream, a Link pumping a stream in the background
// and dispatching decoded packets, and a Client layering
// request/reply semantics on top of a Link.
//
// Subpackages adapt concrete transports: serial ports and MQTT.
