package providers

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "default", mutate: func(c *Config) {}},
		{name: "coreml", mutate: func(c *Config) { c.Backend = CoreMLProviderBackend }},
		{name: "cuda", mutate: func(c *Config) { c.Backend = CUDAProviderBackend }},
		{name: "openvino cpu fp32", mutate: func(c *Config) { c.Backend = OpenVINOProviderBackend }},
		{
			name: "openvino cpu fp16",
			mutate: func(c *Config) {
				c.Backend = OpenVINOProviderBackend
				c.OpenVINO.Precision = PrecisionFP16
			},
			wantErr: true,
		},
		{
			name: "openvino gpu fp16",
			mutate: func(c *Config) {
				c.Backend = OpenVINOProviderBackend
				c.OpenVINO.DeviceType = "GPU"
				c.OpenVINO.Precision = PrecisionFP16
			},
		},
		{name: "unknown backend", mutate: func(c *Config) { c.Backend = "tensorrt" }, wantErr: true},
		{name: "empty backend", mutate: func(c *Config) { c.Backend = "" }, wantErr: true},
		{name: "negative threads", mutate: func(c *Config) { c.IntraOpNumThreads = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfigValidate_UnsupportedBackend(t *testing.T) {
	c := DefaultConfig()
	c.Backend = "dnnl"

	err := c.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedBackend))

	_, err = SessionOptions(c)
	assert.True(t, errors.Is(err, ErrUnsupportedBackend))
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, CPUProviderBackend, c.Backend)
	assert.GreaterOrEqual(t, c.IntraOpNumThreads, 1)
	assert.Equal(t, 1, c.InterOpNumThreads)
	assert.Len(t, Backends(), 4)
}

func TestCoreMLFlags(t *testing.T) {
	assert.Equal(t, uint32(0), CoreMLOptions{}.Flags())
	assert.Equal(t, uint32(0x001|0x010), CoreMLOptions{UseCPUOnly: true, CreateMLProgram: true}.Flags())
	assert.Equal(t, uint32(0x01f), CoreMLOptions{
		UseCPUOnly:               true,
		EnableOnSubgraphs:        true,
		OnlyEnableDeviceWithANE:  true,
		RequireStaticInputShapes: true,
		CreateMLProgram:          true,
	}.Flags())
}

func TestOpenVINOOptionsMap(t *testing.T) {
	assert.Equal(t, map[string]string{
		"device_id":   "0",
		"device_type": "CPU",
		"precision":   "FP32",
	}, DefaultOpenVINOOptions().Map())

	o := OpenVINOOptions{DeviceType: "GPU", NumOfThreads: 4, NumStreams: 2}
	assert.Equal(t, map[string]string{
		"device_type":    "GPU",
		"num_of_threads": "4",
		"num_streams":    "2",
	}, o.Map())
}

func TestCUDAOptionsMap(t *testing.T) {
	assert.Equal(t, map[string]string{
		"device_id":                 "0",
		"do_copy_in_default_stream": "0",
	}, CUDAOptions{}.Map())

	o := CUDAOptions{
		DeviceID:              1,
		GPUMemLimit:           2147483648,
		ArenaExtendStrategy:   "kSameAsRequested",
		CudnnConvAlgoSearch:   "HEURISTIC",
		DoCopyInDefaultStream: true,
	}
	assert.Equal(t, map[string]string{
		"device_id":                 "1",
		"gpu_mem_limit":             "2147483648",
		"arena_extend_strategy":     "kSameAsRequested",
		"cudnn_conv_algo_search":    "HEURISTIC",
		"do_copy_in_default_stream": "1",
	}, o.Map())
}

func TestDefaultSharedLibPath(t *testing.T) {
	tests := []struct {
		goos, goarch string
		expected     string
	}{
		{"linux", "amd64", "./third_party/onnxruntime.so"},
		{"linux", "arm64", "./third_party/onnxruntime_arm64.so"},
		{"darwin", "arm64", "./third_party/libonnxruntime.dylib"},
		{"windows", "amd64", "./third_party/onnxruntime.dll"},
		{"plan9", "amd64", ""},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch, func(t *testing.T) {
			assert.Equal(t, tt.expected, defaultSharedLibPath(tt.goos, tt.goarch))
		})
	}
}

func TestGetSharedLibPath_Env(t *testing.T) {
	t.Setenv(SharedLibPathEnv, "/opt/onnxruntime/lib/libonnxruntime.so")
	assert.Equal(t, "/opt/onnxruntime/lib/libonnxruntime.so", GetSharedLibPath())
}
