package utilities

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_FiresOncePerWindowWithLatestValue(t *testing.T) {
	var mu sync.Mutex
	var fired []string

	d := NewDebouncer(50*time.Millisecond, func(v string) {
		mu.Lock()
		fired = append(fired, v)
		mu.Unlock()
	})
	defer d.Stop()

	// A burst of triggers within one window collapses to a single
	// invocation carrying the most recent value.
	d.Trigger("b")
	d.Trigger("bi")
	d.Trigger("bit")
	d.Trigger("bitcoin")

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	require.Len(t, fired, 1)
	assert.Equal(t, "bitcoin", fired[0])
	mu.Unlock()
}

func TestDebouncer_SeparateWindowsFireSeparately(t *testing.T) {
	var mu sync.Mutex
	var fired []string

	d := NewDebouncer(30*time.Millisecond, func(v string) {
		mu.Lock()
		fired = append(fired, v)
		mu.Unlock()
	})
	defer d.Stop()

	d.Trigger("first")
	time.Sleep(100 * time.Millisecond)
	d.Trigger("second")
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"first", "second"}, fired)
	mu.Unlock()
}

func TestDebouncer_StopCancelsPendingFire(t *testing.T) {
	var mu sync.Mutex
	count := 0

	d := NewDebouncer(30*time.Millisecond, func(struct{}) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	d.Trigger(struct{}{})
	d.Stop()
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	assert.Equal(t, 0, count)
	mu.Unlock()
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", Debug, false},
		{"INFO", Info, false},
		{"Warn", Warn, false},
		{"error", Error, false},
		{"fatal", Fatal, false},
		{"verbose", Info, true},
	}
	for _, tc := range tests {
		got, err := ParseLogLevel(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}
