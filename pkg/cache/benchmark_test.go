package cache

import (
	"fmt"
	"testing"
)

func BenchmarkSimpleCacheSet(b *testing.B) {
	c, err := NewSimple[int]()
	if err != nil {
		b.Fatal(err)
	}
	defer c.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Set(fmt.Sprintf("key-%d", i%1024), i)
	}
}

func BenchmarkSimpleCacheGet(b *testing.B) {
	c, err := NewSimple[int]()
	if err != nil {
		b.Fatal(err)
	}
	defer c.Close()

	for i := 0; i < 1024; i++ {
		_, _ = c.Set(fmt.Sprintf("key-%d", i), i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get(fmt.Sprintf("key-%d", i%1024))
	}
}

func BenchmarkLRUCacheSet(b *testing.B) {
	c, err := NewLRU[int](512)
	if err != nil {
		b.Fatal(err)
	}
	defer c.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Set(fmt.Sprintf("key-%d", i%1024), i)
	}
}

func BenchmarkLRUCacheMixed(b *testing.B) {
	c, err := NewLRU[int](512)
	if err != nil {
		b.Fatal(err)
	}
	defer c.Close()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			key := fmt.Sprintf("key-%d", i%768)
			if i%3 == 0 {
				_, _ = c.Set(key, i)
			} else {
				c.Get(key)
			}
			i++
		}
	})
}
