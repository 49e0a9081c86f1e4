//go:build js && wasm

// Command widget is the in-page visitor counter. Built with GOOS=js
// GOARCH=wasm and loaded by wasm_exec.js, it runs once when the module starts.
package main

import (
	"context"
	"syscall/js"

	"github.com/terngkub/the-cloud-resume-challenge/internal/config"
	"github.com/terngkub/the-cloud-resume-challenge/internal/counter"
	"github.com/terngkub/the-cloud-resume-challenge/internal/logging"
	"github.com/terngkub/the-cloud-resume-challenge/internal/widget"
)

// Overridable at link time: -ldflags "-X main.counterURL=..."
var (
	counterURL = config.DefaultCounterURL
	elementID  = config.DefaultElementID
)

func main() {
	logger := logging.New(logging.LevelInfo, consoleWriter{})

	doc := document{v: js.Global().Get("document")}
	w := widget.New(counter.New(counterURL), doc, elementID, logger)
	if _, err := w.Show(context.Background()); err != nil {
		js.Global().Get("console").Call("error", err.Error())
	}
}
