// Package script serializes plans into executable bash or batch scripts.
//
// Argument vectors are quoted per dialect and pseudo-commands expand to
// the dialect's shell builtins. Scripts are written under an advisory
// file lock so two runs over the same directory cannot interleave.
package script
