// Package wake implements the wake serial protocol codec.
package wake

// The wake protocol frames short command packets for exchange with
// a microcontroller over a byte stream (usually a UART). A frame
// starts with FEND, optionally carries a 7-bit address (flagged by
// the high bit of the byte after FEND), then a 7-bit command code,
// a one-byte data length, up to 255 data bytes and a CRC-8 over
// everything before it. FEND and FESC occurring after the start
// marker are escaped with FESC pairs, so FEND stays unambiguous
// on the wire and a receiver can always resynchronize on it.
//
// This package is the pure codec: packets to bytes, bytes back to
// packets, one already-delimited frame per call. It performs no I/O,
// keeps no state between calls and never logs. Locating frame
// boundaries on a continuous stream, timeouts and retries belong to
// the transport layer (see pkg/comm).
//
// Producer: host application
// Consumer: device firmware, and vice versa
