package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheGetSet(t *testing.T) {
	var zero Cache
	assert.Empty(t, zero.Get())

	c := New("<p>one</p>")
	assert.Equal(t, "<p>one</p>", c.Get())

	c.Set("<p>two</p>")
	assert.Equal(t, "<p>two</p>", c.Get())
}

func TestCacheConcurrentReadersSeeWholeValues(t *testing.T) {
	c := New("v0")

	valid := make(map[string]bool)
	for i := 0; i <= 200; i++ {
		valid[fmt.Sprintf("v%d", i)] = true
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	bad := make(chan string, 1)

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if v := c.Get(); !valid[v] {
					select {
					case bad <- v:
					default:
					}
					return
				}
			}
		}()
	}

	for i := 1; i <= 200; i++ {
		c.Set(fmt.Sprintf("v%d", i))
	}
	close(stop)
	wg.Wait()

	select {
	case v := <-bad:
		t.Fatalf("reader observed unexpected value %q", v)
	default:
	}
	assert.Equal(t, "v200", c.Get())
}
