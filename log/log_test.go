package log

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToLogAttrWire(t *testing.T) {
	tests := []struct {
		name     string
		attr     slog.Attr
		wantType string
		wantVal  string
	}{
		{name: "string", attr: slog.String("key", "value"), wantType: "string", wantVal: "value"},
		{name: "int64", attr: slog.Int64("key", 123), wantType: "int64", wantVal: "123"},
		{name: "uint64", attr: slog.Uint64("key", 7), wantType: "uint64", wantVal: "7"},
		{name: "bool", attr: slog.Bool("key", true), wantType: "bool", wantVal: "true"},
		{name: "float64", attr: slog.Float64("key", 1.23), wantType: "float64", wantVal: "1.23"},
		{
			name:     "time",
			attr:     slog.Time("key", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			wantType: "time",
			wantVal:  "2024-01-01T00:00:00Z",
		},
		{name: "duration", attr: slog.Duration("key", 1*time.Hour), wantType: "duration", wantVal: "1h0m0s"},
		{name: "error", attr: slog.Any("key", errors.New("test error")), wantType: "error", wantVal: "test error"},
		{name: "nil", attr: slog.Any("key", nil), wantType: "any", wantVal: "<nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire := toLogAttrWire(tt.attr)
			assert.Equal(t, tt.attr.Key, wire.Key)
			assert.Equal(t, tt.wantType, wire.Type)
			assert.Equal(t, tt.wantVal, wire.Value)
		})
	}
}

func TestToLogAttrWire_JSON(t *testing.T) {
	type shape struct {
		Field string `json:"field"`
	}
	obj := shape{Field: "data"}

	wire := toLogAttrWire(slog.Any("key", obj))
	assert.Equal(t, "json", wire.Type)

	var decoded shape
	require.NoError(t, json.Unmarshal([]byte(wire.Value), &decoded))
	assert.Equal(t, obj, decoded)
}

func TestToLogAttrWire_LogValuer(t *testing.T) {
	wire := toLogAttrWire(slog.Any("key", logValuer{val: "resolved"}))

	assert.Equal(t, "key", wire.Key)
	assert.Equal(t, "string", wire.Type)
	assert.Equal(t, "resolved", wire.Value)
}

type logValuer struct {
	val string
}

func (l logValuer) LogValue() slog.Value {
	return slog.StringValue(l.val)
}

func TestLogAttrWire_Attr(t *testing.T) {
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	attrs := []slog.Attr{
		slog.Int64("n", -3),
		slog.Uint64("u", 9),
		slog.Bool("ok", false),
		slog.Float64("f", 0.5),
		slog.Time("t", ts),
		slog.Duration("d", 2*time.Second),
		slog.String("s", "x"),
	}

	for _, attr := range attrs {
		back := toLogAttrWire(attr).Attr()
		assert.True(t, attr.Equal(back), "attr %s: got %v", attr.Key, back)
	}

	// Unparseable values degrade to strings.
	assert.Equal(t, slog.String("n", "many"), LogAttrWire{Key: "n", Type: "int64", Value: "many"}.Attr())
}

func TestNewHandler_Defaults(t *testing.T) {
	h := NewHandler()
	assert.True(t, h.Enabled(context.TODO(), slog.LevelInfo))
	assert.False(t, h.Enabled(context.TODO(), slog.LevelDebug))
}

func TestNewHandler_Options(t *testing.T) {
	h := NewHandler(WithLevel(slog.LevelDebug), WithSource(true))
	assert.True(t, h.Enabled(context.TODO(), slog.LevelDebug))
	assert.True(t, h.opts.addSource)
}

func TestWireRecord_AttrsAndGroups(t *testing.T) {
	var h slog.Handler = NewHandler()
	h = h.WithAttrs([]slog.Attr{slog.String("module", "example")})
	h = h.WithGroup("call")
	h = h.WithAttrs([]slog.Attr{slog.Int("n", 4)})

	record := slog.NewRecord(time.Time{}, slog.LevelWarn, "short input", 0)
	record.AddAttrs(
		slog.String("arg", "b"),
		slog.Group("len", slog.Int("want", 4), slog.Int("got", 2)),
		slog.Attr{},
	)

	msg := h.(*WasmLogHandler).wireRecord(record)

	assert.Equal(t, "WARN", msg.Level)
	assert.Equal(t, "short input", msg.Message)

	keys := make([]string, 0, len(msg.Attrs))
	for _, a := range msg.Attrs {
		keys = append(keys, a.Key)
	}
	assert.Equal(t, []string{"module", "call.n", "call.arg", "call.len.want", "call.len.got"}, keys)
}

func TestWithAttrs_DoesNotShareState(t *testing.T) {
	base := NewHandler().WithAttrs([]slog.Attr{slog.String("a", "1")}).(*WasmLogHandler)
	left := base.WithAttrs([]slog.Attr{slog.String("b", "2")}).(*WasmLogHandler)
	right := base.WithAttrs([]slog.Attr{slog.String("c", "3")}).(*WasmLogHandler)

	assert.Len(t, base.attrs, 1)
	assert.Equal(t, "b", left.attrs[1].Key)
	assert.Equal(t, "c", right.attrs[1].Key)
}

func TestDecodeLogMessage(t *testing.T) {
	data := []byte(`{"timestamp":"2024-01-01T00:00:00Z","level":"DEBUG","message":"hi","attrs":[{"key":"n","type":"int64","value":"2"}]}`)

	msg, err := DecodeLogMessage(data)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, msg.SlogLevel())
	assert.Equal(t, "hi", msg.Message)
	require.Len(t, msg.SlogAttrs(), 1)
	assert.Equal(t, int64(2), msg.SlogAttrs()[0].Value.Int64())

	_, err = DecodeLogMessage([]byte("{"))
	assert.Error(t, err)

	assert.Equal(t, slog.LevelInfo, LogMessageWire{Level: "chatty"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn+2, LogMessageWire{Level: "WARN+2"}.SlogLevel())
}
