package logrus

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/raykavin/optifolio/core"
)

var _ core.Logger = (*Adapter)(nil)

func newTestAdapter() (*Adapter, *bytes.Buffer) {
	out := &bytes.Buffer{}
	logger := logrus.New()
	logger.SetOutput(out)
	return NewAdapter(logger), out
}

func TestAdapterWritesThroughLogrus(t *testing.T) {
	adapter, out := newTestAdapter()

	adapter.Info("hello")
	assert.Contains(t, out.String(), "hello")

	out.Reset()
	adapter.WithField("symbol", "AAA").Warnf("missing %d bars", 3)
	assert.Contains(t, out.String(), "symbol=AAA")
	assert.Contains(t, out.String(), "missing 3 bars")
}

func TestAdapterLevelRoundTrip(t *testing.T) {
	adapter, _ := newTestAdapter()

	levels := []core.Level{
		core.TraceLevel,
		core.DebugLevel,
		core.InfoLevel,
		core.WarnLevel,
		core.ErrorLevel,
		core.FatalLevel,
		core.PanicLevel,
	}
	for _, level := range levels {
		adapter.SetLevel(level)
		assert.Equal(t, level, adapter.GetLevel())
	}
}

func TestAdapterLevelFilters(t *testing.T) {
	adapter, out := newTestAdapter()

	adapter.SetLevel(core.WarnLevel)
	adapter.Debug("quiet")
	assert.Empty(t, out.String())

	adapter.Error("loud")
	assert.Contains(t, out.String(), "loud")
}
