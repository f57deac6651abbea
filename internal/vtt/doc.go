// Package vtt rewrites WebVTT subtitles so that no two cues are on screen
// at the same time. mov_text and subrip muxers drop concurrent cues and cut
// cue text at its first blank line; a normalized file survives both.
//
// Overlapping cues are grouped into runs of transitively colliding cues.
// Each run is cut at every start and end instant, and each window gets one
// cue holding the text of every cue covering it, most recently started
// first, separated by a paragraph marker.
package vtt
