// Package codec provides stateless bidirectional audio transcoding
// between linear PCM16 and the G.711 companded telephony formats,
// plus linear-interpolation sample-rate conversion.
//
// All functions are pure: identical inputs always produce identical
// outputs, and no state is carried across calls. Buffers hold little-
// endian 16-bit linear samples unless a companded format is named.
package codec
