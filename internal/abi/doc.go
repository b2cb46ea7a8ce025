// Package abi provides low-level helpers shared by the native memory codecs:
// overflow-checked size arithmetic, alignment, and the hard limits every
// native buffer is held to.
package abi
