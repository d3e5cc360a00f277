package memory_test

import (
	"sort"
	"sync"
	"testing"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

func TestSequenceRepository_Next(t *testing.T) {
	repo := memory.NewSequenceRepository()

	for want := int64(1); want <= 3; want++ {
		got, err := repo.Next(domain.SequenceOrderNumber)
		if err != nil {
			t.Fatalf("next failed: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}
}

func TestSequenceRepository_IndependentCounters(t *testing.T) {
	repo := memory.NewSequenceRepository()

	if _, err := repo.Next("a"); err != nil {
		t.Fatalf("next failed: %v", err)
	}
	got, err := repo.Next("b")
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if got != 1 {
		t.Fatalf("counters must be independent, got %d", got)
	}
}

func TestSequenceRepository_EmptyName(t *testing.T) {
	repo := memory.NewSequenceRepository()
	if _, err := repo.Next("  "); err == nil {
		t.Fatal("expected error for empty counter name")
	}
}

// M конкурентных вызовов одного счётчика возвращают M различных строго
// возрастающих значений — без дублей.
func TestSequenceRepository_ConcurrentDistinct(t *testing.T) {
	const m = 200
	repo := memory.NewSequenceRepository()

	var wg sync.WaitGroup
	values := make(chan int64, m)
	for i := 0; i < m; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := repo.Next(domain.SequenceOrderNumber)
			if err != nil {
				t.Errorf("next failed: %v", err)
				return
			}
			values <- v
		}()
	}
	wg.Wait()
	close(values)

	got := make([]int64, 0, m)
	for v := range values {
		got = append(got, v)
	}
	if len(got) != m {
		t.Fatalf("expected %d values, got %d", m, len(got))
	}

	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	for i, v := range got {
		if v != int64(i+1) {
			t.Fatalf("expected dense distinct sequence, got %v at position %d", v, i)
		}
	}
}
