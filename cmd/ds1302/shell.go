package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/google/shlex"
	errgo "gopkg.in/errgo.v1"
)

// Exit statuses.
const (
	statusOK      = 0
	statusFailed  = 1
	statusInvalid = 5
)

// report writes err to w and returns the matching exit status.
func report(w io.Writer, err error) int {
	if err == nil {
		return statusOK
	}
	fmt.Fprintf(w, "%v.\n", err)
	if errgo.Cause(err) == errInvalid {
		fmt.Fprintf(w, "ds1302: param is invalid.\n")
		return statusInvalid
	}
	fmt.Fprintf(w, "ds1302: run failed.\n")
	return statusFailed
}

// shell reads command lines from in until EOF and runs each one. A line is
// split like a shell would and must start with the command name, as in
// "ds1302 -e basic-get-time".
func (r *runner) shell(in io.Reader) error {
	fmt.Fprintf(r.out, "ds1302: welcome to libdriver ds1302.\n")
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		words, err := shlex.Split(sc.Text())
		if err != nil {
			report(r.out, invalid("%v", err))
			continue
		}
		if len(words) == 0 {
			continue
		}
		if words[0] != "ds1302" {
			fmt.Fprintf(r.out, "ds1302: unknown command.\n")
			continue
		}
		report(r.out, r.run(words[1:]))
	}
	if err := sc.Err(); err != nil {
		return errgo.Notef(err, "cannot read command")
	}
	return nil
}
