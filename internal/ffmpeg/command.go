package ffmpeg

import "strings"

// Kind distinguishes argv commands from pseudo-commands.
type Kind int

const (
	KindExec         Kind = iota // Args is an argument vector.
	KindAssertExists             // Args[0] must exist once earlier commands ran.
	KindMakeDir                  // Args[0] is created with parents.
	KindRemoveDir                // Args[0] is removed recursively.
	KindRename                   // Args[0] is renamed to Args[1].
	KindDelete                   // Args[0] is deleted if present.
)

var kindNames = map[Kind]string{
	KindAssertExists: "ASSERT_EXIST",
	KindMakeDir:      "MKDIR",
	KindRemoveDir:    "RMDIR",
	KindRename:       "RENAME",
	KindDelete:       "DELETE",
}

// Command is one entry of an emitted plan.
type Command struct {
	Kind Kind
	Args []string
}

// Exec returns an argv command.
func Exec(args ...string) Command { return Command{Kind: KindExec, Args: args} }

// AssertExists returns a check that path was produced.
func AssertExists(path string) Command { return Command{Kind: KindAssertExists, Args: []string{path}} }

// MakeDir returns a directory creation.
func MakeDir(path string) Command { return Command{Kind: KindMakeDir, Args: []string{path}} }

// RemoveDir returns a recursive directory removal.
func RemoveDir(path string) Command { return Command{Kind: KindRemoveDir, Args: []string{path}} }

// Rename returns a file rename.
func Rename(from, to string) Command { return Command{Kind: KindRename, Args: []string{from, to}} }

// Delete returns a file removal.
func Delete(path string) Command { return Command{Kind: KindDelete, Args: []string{path}} }

// Path returns the first operand of a pseudo-command, or "" for argv commands.
func (c Command) Path() string {
	if c.Kind == KindExec || len(c.Args) == 0 {
		return ""
	}
	return c.Args[0]
}

// String renders the command for logs and dry runs. Pseudo-commands print
// as "[KIND] operands". No shell quoting is applied.
func (c Command) String() string {
	if c.Kind == KindExec {
		return strings.Join(c.Args, " ")
	}
	return "[" + kindNames[c.Kind] + "] " + strings.Join(c.Args, " ")
}
