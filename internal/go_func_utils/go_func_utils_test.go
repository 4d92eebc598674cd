package go_func_utils

import (
	"bytes"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSafeGo_RunsFunction(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	done := make(chan string, 1)
	SafeGo(logger, "worker", func() { done <- "ran" })

	select {
	case v := <-done:
		assert.Equal(t, "ran", v)
	case <-time.After(time.Second):
		t.Fatal("SafeGo did not run the function")
	}
	assert.Empty(t, buf.String())
}

func TestLogPanic_NoPanicIsSilent(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	func() {
		defer logPanic(logger, "quiet")
	}()
	assert.Empty(t, buf.String())
}

func TestLogPanic_LogsAndRepanics(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	assert.PanicsWithValue(t, "boom", func() {
		defer logPanic(logger, "loop")
		panic("boom")
	})
	assert.Contains(t, buf.String(), "PANIC in loop: boom")
}
