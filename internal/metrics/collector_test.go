package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecordCall(t *testing.T) {
	c := NewCollector()
	c.RecordCall("list:clients", 10*time.Millisecond, nil)
	c.RecordCall("list:clients", 30*time.Millisecond, errors.New("boom"))
	c.RecordCall("get:workers", 5*time.Millisecond, nil)

	snap := c.Snapshot()
	require.Len(t, snap.Operations, 2)

	// sorted by name
	assert.Equal(t, "get:workers", snap.Operations[0].Name)
	list := snap.Operations[1]
	assert.Equal(t, "list:clients", list.Name)
	assert.Equal(t, int64(2), list.Count)
	assert.Equal(t, int64(1), list.Failures)
	assert.Equal(t, int64(10), list.MinTimeMs)
	assert.Equal(t, int64(30), list.MaxTimeMs)
	assert.InDelta(t, 20.0, list.AvgTimeMs, 0.001)
}

func TestCollectorEvents(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc(EventDegradedFetch, 1)
		}()
	}
	wg.Wait()
	c.Inc(EventRollback, 0)

	snap := c.Snapshot()
	assert.Equal(t, int64(50), snap.Events[EventDegradedFetch])
	_, ok := snap.Events[EventRollback]
	assert.False(t, ok, "zero increments should not create an event")
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordCall("list:jobs", time.Millisecond, nil)
		c.Inc(EventStaleCycle, 1)
	})
}
