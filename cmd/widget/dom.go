//go:build js && wasm

package main

import (
	"fmt"
	"strings"
	"syscall/js"
)

// document writes into the live DOM.
type document struct {
	v js.Value
}

func (d document) SetText(id, text string) error {
	el := d.v.Call("getElementById", id)
	if el.IsNull() || el.IsUndefined() {
		return fmt.Errorf("element not found: #%s", id)
	}
	el.Set("textContent", text)
	return nil
}

// consoleWriter sends each log line to console.log.
type consoleWriter struct{}

func (consoleWriter) Write(p []byte) (int, error) {
	js.Global().Get("console").Call("log", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
