package vlq

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCache(t *testing.T) {
	c, err := NewCache(2)
	if err != nil {
		t.Fatal(err)
	}

	for _, segment := range []string{"AAAA", "hB", "AAAA", "2HwcAAAA", "hB"} {
		want, err := Decode(segment)
		if err != nil {
			t.Fatal(err)
		}

		got, err := c.Decode(segment)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Decode(%q) mismatch (-want +got):\n%s", segment, diff)
		}
	}

	if c.Len() != 2 {
		t.Errorf("got %d cached segments, want 2", c.Len())
	}
}

func TestCacheReturnsCopies(t *testing.T) {
	c, err := NewCache(8)
	if err != nil {
		t.Fatal(err)
	}

	first, err := c.Decode("SAAQ")
	if err != nil {
		t.Fatal(err)
	}
	first[0] = 1000

	second, err := c.Decode("SAAQ")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{9, 0, 0, 8}, second); diff != "" {
		t.Errorf("cached value was modified (-want +got):\n%s", diff)
	}
}

func TestCacheSkipsFailures(t *testing.T) {
	c, err := NewCache(8)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if _, err := c.Decode("A?"); !errors.Is(err, ErrInvalidCharacter) {
			t.Fatalf("got %v, want ErrInvalidCharacter", err)
		}
	}
	if c.Len() != 0 {
		t.Errorf("got %d cached segments, want 0", c.Len())
	}
}

func TestCacheConcurrent(t *testing.T) {
	c, err := NewCache(4)
	if err != nil {
		t.Fatal(err)
	}

	segments := []string{"AAAA", "AACA", "SAAQ", "hB", "gB", "2HwcAAAA"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				segment := segments[j%len(segments)]
				want, _ := Decode(segment)
				got, err := c.Decode(segment)
				if err != nil {
					t.Error(err)
					return
				}
				if !cmp.Equal(want, got) {
					t.Errorf("Decode(%q) = %v, want %v", segment, got, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestCacheDecodeMappings(t *testing.T) {
	c, err := NewCache(8)
	if err != nil {
		t.Fatal(err)
	}

	mappings := "AAAA,SAAQ;;AAAA,CAAC"
	want, err := DecodeMappings(mappings)
	if err != nil {
		t.Fatal(err)
	}

	got, err := c.DecodeMappings(mappings)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeMappings mismatch (-want +got):\n%s", diff)
	}
	if c.Len() != 3 {
		t.Errorf("got %d cached segments, want 3", c.Len())
	}

	if _, err := c.DecodeMappings("AAAA;A.A"); !errors.Is(err, ErrInvalidCharacter) {
		t.Errorf("got %v, want ErrInvalidCharacter", err)
	}
}

func TestNewCacheInvalidSize(t *testing.T) {
	if _, err := NewCache(0); err == nil {
		t.Error("expected an error for a zero-sized cache")
	}
}
