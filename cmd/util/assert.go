package util

import (
	"fmt"
	"log"
	"os"

	"github.com/m4tt-willi4ms/cctbx-project/ncs"
)

// ExitInput is the exit status used when a command fails because of bad
// input, as opposed to an I/O or internal error.
const ExitInput = 2

func Warnf(format string, v ...interface{}) {
	log.Printf(format, v...)
}

func Warning(err error, v ...interface{}) bool {
	if err != nil {
		if len(v) == 0 {
			Warnf("WARNING: %s.", err)
		} else {
			format := v[0].(string)
			v = v[1:]
			Warnf("%s: %s.", fmt.Sprintf(format, v...), err)
		}
		return true
	}
	return false
}

func Fatalf(format string, v ...interface{}) {
	log.Fatalf(format, v...)
}

// Assert quits with a message if err is not nil. User errors from the ncs
// package are reported as they are, with exit status ExitInput.
func Assert(err error, v ...interface{}) {
	if err == nil {
		return
	}
	if ncs.IsInputError(err) {
		log.Printf("ERROR: %s", err)
		os.Exit(ExitInput)
	}
	if len(v) == 0 {
		Fatalf("ERROR: %s.", err)
	} else {
		format := v[0].(string)
		v = v[1:]
		Fatalf("%s: %s.", fmt.Sprintf(format, v...), err)
	}
}

// WarnLog prints every message accumulated in l.
func WarnLog(l *ncs.Log) {
	if l == nil {
		return
	}
	for _, msg := range l.Messages() {
		Warnf("WARNING: %s", msg)
	}
}
