package monolith

import (
	"context"
	"errors"
	"testing"

	"github.com/fd1az/pool-service/internal/config"
	"github.com/fd1az/pool-service/internal/di"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any)       {}
func (nopLogger) Info(context.Context, string, ...any)        {}
func (nopLogger) Warn(context.Context, string, ...any)        {}
func (nopLogger) Error(context.Context, string, ...any)       {}
func (nopLogger) Debugc(context.Context, int, string, ...any) {}
func (nopLogger) Infoc(context.Context, int, string, ...any)  {}
func (nopLogger) Warnc(context.Context, int, string, ...any)  {}
func (nopLogger) Errorc(context.Context, int, string, ...any) {}

type recordingModule struct {
	name     string
	calls    *[]string
	startErr error
}

func (m recordingModule) RegisterServices(c di.Container) error {
	*m.calls = append(*m.calls, "register:"+m.name)
	c.Register(m.name, m.name)
	return nil
}

func (m recordingModule) Startup(_ context.Context, mono Monolith) error {
	*m.calls = append(*m.calls, "start:"+m.name)
	if got := mono.Services().Get(m.name); got != m.name {
		return errors.New("service missing")
	}
	return m.startErr
}

type countingCloser struct {
	order *[]string
	name  string
}

func (c countingCloser) Close() { *c.order = append(*c.order, c.name) }

func newTestApp(t *testing.T) *app {
	t.Helper()
	cfg := &config.Config{Sui: config.SuiConfig{RPCURL: "http://127.0.0.1:1"}}
	a, err := New(context.Background(), cfg, nopLogger{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestModulesLifecycle(t *testing.T) {
	a := newTestApp(t)
	defer a.Close()

	var calls []string
	mods := []Module{
		recordingModule{name: "liquidity", calls: &calls},
		recordingModule{name: "payment", calls: &calls},
	}

	if err := a.RegisterModules(mods...); err != nil {
		t.Fatal(err)
	}
	if err := a.StartModules(context.Background(), mods...); err != nil {
		t.Fatal(err)
	}

	want := []string{"register:liquidity", "register:payment", "start:liquidity", "start:payment"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %s, want %s", i, calls[i], want[i])
		}
	}

	if a.Services().Get("config").(*config.Config) != a.Config() {
		t.Error("config not registered")
	}
}

func TestStartModules_StopsOnError(t *testing.T) {
	a := newTestApp(t)
	defer a.Close()

	var calls []string
	boom := errors.New("boom")
	mods := []Module{
		recordingModule{name: "a", calls: &calls, startErr: boom},
		recordingModule{name: "b", calls: &calls},
	}
	a.RegisterModules(mods...)

	if err := a.StartModules(context.Background(), mods...); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	for _, c := range calls {
		if c == "start:b" {
			t.Fatal("module b should not start after a failed")
		}
	}
}

func TestClose_ReverseOrder(t *testing.T) {
	a := newTestApp(t)

	var order []string
	a.OnClose(countingCloser{order: &order, name: "first"})
	a.OnClose(countingCloser{order: &order, name: "second"})
	a.Close()

	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Errorf("close order = %v", order)
	}
}
