package preload

import (
	"sync"
	"testing"
	"time"
)

func TestQueueFIFO(t *testing.T) {
	q := newPathQueue()
	q.Push("/a")
	q.Push("/b")
	q.Push("/c")

	for _, expected := range []string{"/a", "/b", "/c"} {
		got, ok := q.Pop()
		if !ok {
			t.Fatal("Pop returned closed on a non-empty queue")
		}
		if got != expected {
			t.Errorf("expected %s, got %s", expected, got)
		}
	}

	if q.Len() != 0 {
		t.Errorf("expected empty queue, len=%d", q.Len())
	}
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := newPathQueue()

	done := make(chan string, 1)
	go func() {
		path, ok := q.Pop()
		if !ok {
			done <- ""
			return
		}
		done <- path
	}()

	// Give the consumer a moment to block
	time.Sleep(20 * time.Millisecond)
	q.Push("/late")

	select {
	case got := <-done:
		if got != "/late" {
			t.Errorf("expected /late, got %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Pop never woke up")
	}
}

func TestQueueCloseWakesConsumers(t *testing.T) {
	q := newPathQueue()

	var wg sync.WaitGroup
	results := make(chan bool, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := q.Pop()
			results <- ok
		}()
	}

	time.Sleep(20 * time.Millisecond)
	q.Close()
	wg.Wait()
	close(results)

	for ok := range results {
		if ok {
			t.Error("Pop returned an item after Close")
		}
	}
}

func TestQueuePushAfterClose(t *testing.T) {
	q := newPathQueue()
	q.Close()
	if q.Push("/x") {
		t.Error("Push succeeded on closed queue")
	}
}

func TestQueueCloseDiscardsQueued(t *testing.T) {
	q := newPathQueue()
	q.Push("/a")
	q.Push("/b")
	q.Close()

	if _, ok := q.Pop(); ok {
		t.Error("expected queued items to be discarded on close")
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue after close, len=%d", q.Len())
	}
}

func TestQueueConcurrentProducersConsumers(t *testing.T) {
	q := newPathQueue()

	const producers = 4
	const perProducer = 100

	var consumed sync.Map
	var consumerWg sync.WaitGroup
	for i := 0; i < 4; i++ {
		consumerWg.Add(1)
		go func() {
			defer consumerWg.Done()
			for {
				path, ok := q.Pop()
				if !ok {
					return
				}
				consumed.Store(path, true)
			}
		}()
	}

	var producerWg sync.WaitGroup
	for p := 0; p < producers; p++ {
		producerWg.Add(1)
		go func(p int) {
			defer producerWg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(string(rune('a'+p)) + "/" + string(rune('0'+i%10)) + "/" + itoa(i))
			}
		}(p)
	}
	producerWg.Wait()

	// Wait for drain, then close
	deadline := time.Now().Add(5 * time.Second)
	for q.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	q.Close()
	consumerWg.Wait()

	count := 0
	consumed.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count != producers*perProducer {
		t.Errorf("expected %d distinct items consumed, got %d", producers*perProducer, count)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}
