package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFileLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFileLogger(&buf, "debug")

	logger.Debug("throttled", "wait", "1s")

	assert.Contains(t, buf.String(), "msg=throttled")
	assert.Contains(t, buf.String(), "wait=1s")
}

func TestNewFileLogger_Levels(t *testing.T) {
	tests := []struct {
		level    string
		debug    bool
		info     bool
		warnings bool
	}{
		{level: "debug", debug: true, info: true, warnings: true},
		{level: "WARN", warnings: true},
		{level: "warning", warnings: true},
		{level: "error"},
		{level: "", info: true, warnings: true},
		{level: "verbose", info: true, warnings: true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewFileLogger(&buf, tt.level)

			logger.Debug("d")
			assert.Equal(t, tt.debug, bytes.Contains(buf.Bytes(), []byte("msg=d")))
			logger.Info("i")
			assert.Equal(t, tt.info, bytes.Contains(buf.Bytes(), []byte("msg=i")))
			logger.Warn("w")
			assert.Equal(t, tt.warnings, bytes.Contains(buf.Bytes(), []byte("msg=w")))
		})
	}
}
