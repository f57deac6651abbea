// Package rules holds the two static tables the planner consults: the
// format rule table, which says per container and stream type which codecs
// pass through and which must convert, and the compatibility table, which
// lists every codec a container can legally hold.
//
// Both are loaded once at startup and never mutated afterwards, so they
// are safe to share between concurrent planners.
package rules
