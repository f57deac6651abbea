// Package probe inspects media files and returns one StreamInfo per
// handled stream (video, audio, subtitle, attachment), keyed by the
// stream's index in the container.
//
// Probing walks a short ordered list of ffprobe configurations and stops at
// the first that yields clean JSON. For MP4 sources a final attempt reads
// the moov box directly. When every attempt fails the error wraps
// [ErrProbeFailure] and the file must not be planned.
package probe
