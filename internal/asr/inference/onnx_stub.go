//go:build !onnx

package inference

import "fmt"

// open reports that the binary was built without the ONNX runtime.
// Build with -tags onnx to enable real inference.
func open(encoderPath, decoderPath string) (Engine, error) {
	return nil, fmt.Errorf("inference: built without onnx support (build with -tags onnx)")
}
