// Package audio plays raw 16-bit little-endian PCM through the system sound
// device.
package audio
