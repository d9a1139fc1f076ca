package obd

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/gavinwade12/obdscan/protocols/canbus"
	"go.einride.tech/can"
)

type Logger interface {
	Debug(message string)
	Debugf(message string, args ...interface{})
}

type nopLogger struct{}

func (l nopLogger) Debug(message string) {}

func (l nopLogger) Debugf(message string, args ...interface{}) {}

var NopLogger Logger = nopLogger{}

type defaultLogger struct {
	l *log.Logger
}

func (l *defaultLogger) Debug(message string) {
	l.l.Println(message)
}

func (l *defaultLogger) Debugf(message string, args ...interface{}) {
	l.l.Printf(message, args...)
}

var DefaultLogger = func(out io.Writer) Logger {
	return &defaultLogger{log.New(out, "OBD ", log.LstdFlags)}
}

func logBytes(l Logger, b []byte, prefix string) {
	var sb strings.Builder
	sb.WriteString(prefix)
	for _, bb := range b {
		fmt.Fprintf(&sb, "0x%02x ", bb)
	}
	l.Debug(sb.String())
}

func logFrame(l Logger, f can.Frame, prefix string) {
	id, err := canbus.FrameID(f)
	if err != nil {
		logBytes(l, canbus.Payload(f), prefix)
		return
	}
	logBytes(l, canbus.Payload(f), fmt.Sprintf("%s%s: ", prefix, id))
}
