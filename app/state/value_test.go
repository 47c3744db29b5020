package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_SubscribeGetsCurrent(t *testing.T) {
	v := NewValue(1)
	ch := v.Subscribe()
	assert.Equal(t, 1, <-ch)

	v.Set(2)
	assert.Equal(t, 2, <-ch)
}

func TestValue_SlowSubscriberSeesLatest(t *testing.T) {
	v := NewValue(0)
	ch := v.Subscribe()

	for i := 1; i <= 10; i++ {
		v.Set(i)
	}

	assert.Equal(t, 10, <-ch)
	select {
	case got := <-ch:
		t.Fatalf("unexpected extra value %d", got)
	default:
	}
}

func TestValue_Update(t *testing.T) {
	v := NewValue(5)
	got := v.Update(func(n int) int { return n * 2 })
	assert.Equal(t, 10, got)
	assert.Equal(t, 10, v.Get())
}

func TestValue_Unsubscribe(t *testing.T) {
	v := NewValue("a")
	ch := v.Subscribe()
	<-ch

	v.Unsubscribe(ch)
	_, open := <-ch
	assert.False(t, open)

	v.Set("b")
	assert.Equal(t, "b", v.Get())
}

func TestValue_ConcurrentUpdates(t *testing.T) {
	v := NewValue(0)
	ch := v.Subscribe()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v.Update(func(n int) int { return n + 1 })
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, v.Get())
	assert.Equal(t, 100, <-ch)
}
