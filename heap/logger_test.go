package heap

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetLogger(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))

	h, err := Open(context.Background(), &Config{})
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close(context.Background())
	if logs.FilterMessage("heap opened").Len() != 1 {
		t.Errorf("logged %v, want one heap opened entry", logs.All())
	}

	SetLogger(nil)
	if Logger() == nil {
		t.Fatal("nil SetLogger must fall back to a no-op logger")
	}
}

func TestSetLoggerConcurrent(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				SetLogger(zap.NewNop())
				return
			}
			h, err := Open(context.Background(), &Config{})
			if err != nil {
				t.Error(err)
				return
			}
			_ = h.Close(context.Background())
		}()
	}
	wg.Wait()
}
