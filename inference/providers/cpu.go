package providers

const (
	// CPUProviderBackend runs on the default ONNX Runtime CPU provider. It
	// needs no session option beyond threading.
	CPUProviderBackend ProviderBackend = "cpu"
)
