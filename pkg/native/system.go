package native

import (
	"fmt"
	"io"
)

// PrintStream represents a java.io.PrintStream.
type PrintStream struct {
	Writer io.Writer
}

// Println prints a value followed by a newline. With no argument it prints
// only the newline.
func (ps *PrintStream) Println(args ...interface{}) error {
	var err error
	if len(args) == 0 {
		_, err = fmt.Fprintln(ps.Writer)
	} else {
		_, err = fmt.Fprintln(ps.Writer, args[0])
	}
	if err != nil {
		return fmt.Errorf("println: %w", err)
	}
	return nil
}
