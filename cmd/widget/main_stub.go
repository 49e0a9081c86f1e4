//go:build !(js && wasm)

// Stub for non-WASM builds so ./... still builds. The widget itself is in
// main.go with js/wasm build tags.
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "widget: build with GOOS=js GOARCH=wasm")
	os.Exit(2)
}
