// Package audioio decodes audio files into mono float32 sources, cuts
// them into fixed-size frames for a filter stream and writes filtered
// samples back out as 16-bit WAV.
package audioio
