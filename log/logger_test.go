package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	now = time.Now().Unix()
	err = fmt.Errorf("error message")
)

// Fatal and Fatalf are not tested
func TestLogger(t *testing.T) {
	SetLogger(6, false, true)

	WithFields("timestamp", now, "err", err).Tracef("test WithFields Tracef at %v", now)
	WithFields("timestamp", now, "err", err).Infof("test WithFields Infof at %v", now)
	assert.Panics(t, func() { WithFields("timestamp", now, "err", err).Panicf("test WithFields Panicf at %v", now) }, "not panic")

	Trace("test Trace", "timestamp", now, "err", err)
	Tracef("test Tracef, timestamp=%v err=%v", now, err)
	Debug("test Debug", "timestamp", now, "err", err)
	Debugf("test Debugf, timestamp=%v err=%v", now, err)
	Info("test Info", "timestamp", now, "err", err)
	Infof("test Infof, timestamp=%v err=%v", now, err)
	Println("test Println", "timestamp", now, "err", err)
	Warn("test Warn", "timestamp", now, "err", err)
	Warnf("test Warnf, timestamp=%v err=%v", now, err)
	Error("test Error", "timestamp", now, "err", err)
	Errorf("test Errorf, timestamp=%v err=%v", now, err)

	assert.Panics(t, func() { Panic("test Panic", "timestamp", now, "err", err) }, "not panic")
}

func TestJSONFields(t *testing.T) {
	SetLogger(4, true, false)
	defer SetLogger(4, false, false)

	var buf bytes.Buffer
	SetOutput(&buf)
	Info("submit extrinsic", "nonce", 5, "odd")

	var fields map[string]interface{}
	require.Nil(t, json.Unmarshal(buf.Bytes(), &fields))
	assert.Equal(t, "submit extrinsic", fields["msg"])
	assert.Equal(t, float64(5), fields["nonce"])
	assert.Equal(t, "info", fields["level"])

	buf.Reset()
	Debug("hidden at info level")
	assert.Equal(t, 0, buf.Len())
}

func TestSetLogFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "logtest")
	require.Nil(t, err)
	defer os.RemoveAll(dir)
	defer SetLogger(4, false, false)

	SetLogger(4, false, false)
	logFile := filepath.Join(dir, "subxt.log")
	require.Nil(t, SetLogFile(logFile, 1, 2))
	Info("to file", "key", "value")

	content, err := ioutil.ReadFile(logFile)
	require.Nil(t, err)
	assert.True(t, strings.Contains(string(content), "to file"))

	assert.Nil(t, SetLogFile("", 0, 0))
}
