package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexReleasesEntries(t *testing.T) {
	var locks KeyedMutex
	for i := 0; i < 100; i++ {
		unlock := locks.Lock(NewID("ws"))
		unlock()
	}
	assert.Equal(t, 0, locks.Len())

	unlock := locks.Lock("a")
	assert.Equal(t, 1, locks.Len())
	unlock()
	unlock()
	assert.Equal(t, 0, locks.Len())
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	var locks KeyedMutex
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("session")
			defer unlock()
			value := counter
			counter = value + 1
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, locks.Len())
}
