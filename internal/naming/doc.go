// Package naming allocates collision-free paths and builds the names of
// everything a plan writes next to its source: the output file, the
// per-file temp directory, the temp files of conversion chains, and the
// script.
package naming
