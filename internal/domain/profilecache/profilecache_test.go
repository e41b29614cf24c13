package profilecache_test

import (
	"context"
	"sync"
	"testing"

	"github.com/okian/perfil/internal/domain/profile"
	"github.com/okian/perfil/internal/domain/profile/profiletest"
	"github.com/okian/perfil/internal/domain/profilecache"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new cache", t, func() {
		c := profilecache.NewInMemoryCache()
		p := profiletest.Build("stu-1", profiletest.Default())

		Convey("When the key is unknown", func() {
			_, ok := c.Get(ctx, 1)

			Convey("Then it misses", func() {
				So(ok, ShouldBeFalse)
				So(c.Size(), ShouldEqual, 0)
			})
		})

		Convey("When a profile is stored", func() {
			c.Put(ctx, 1, p)
			got, ok := c.Get(ctx, 1)

			Convey("Then it is returned unchanged", func() {
				So(ok, ShouldBeTrue)
				So(got, ShouldResemble, p)
				So(c.Size(), ShouldEqual, 1)
			})

			Convey("And storing it again does not grow the cache", func() {
				c.Put(ctx, 1, p)
				So(c.Size(), ShouldEqual, 1)
			})

			Convey("And invalidating removes it", func() {
				c.Invalidate(ctx, 1)
				c.Invalidate(ctx, 99)
				_, ok := c.Get(ctx, 1)
				So(ok, ShouldBeFalse)
				So(c.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a bounded cache at capacity", t, func() {
		c := profilecache.NewInMemoryCache(profilecache.WithMaxSize(3))
		for k := uint64(1); k <= 3; k++ {
			c.Put(ctx, k, profile.UnifiedProfile{StudentID: "s"})
		}

		Convey("When another profile is stored", func() {
			c.Put(ctx, 4, profile.UnifiedProfile{StudentID: "s4"})

			Convey("Then the oldest entry is evicted", func() {
				So(c.Size(), ShouldEqual, 3)
				_, ok := c.Get(ctx, 1)
				So(ok, ShouldBeFalse)
				for k := uint64(2); k <= 4; k++ {
					_, ok := c.Get(ctx, k)
					So(ok, ShouldBeTrue)
				}
			})
		})

		Convey("When the oldest entry is read before another is stored", func() {
			_, ok := c.Get(ctx, 1)
			So(ok, ShouldBeTrue)
			c.Put(ctx, 4, profile.UnifiedProfile{StudentID: "s4"})

			Convey("Then the least recently used entry is evicted instead", func() {
				_, ok := c.Get(ctx, 2)
				So(ok, ShouldBeFalse)
				for _, k := range []uint64{1, 3, 4} {
					_, ok := c.Get(ctx, k)
					So(ok, ShouldBeTrue)
				}
			})
		})

		Convey("When the oldest entry is stored again before another is added", func() {
			c.Put(ctx, 1, profile.UnifiedProfile{StudentID: "s1"})
			c.Put(ctx, 4, profile.UnifiedProfile{StudentID: "s4"})

			Convey("Then it counts as recently used", func() {
				p, ok := c.Get(ctx, 1)
				So(ok, ShouldBeTrue)
				So(p.StudentID, ShouldEqual, "s1")
				_, ok = c.Get(ctx, 2)
				So(ok, ShouldBeFalse)
				So(c.Size(), ShouldEqual, 3)
			})
		})

		Convey("When the middle entry is invalidated and two are added", func() {
			c.Invalidate(ctx, 2)
			c.Put(ctx, 5, profile.UnifiedProfile{})
			c.Put(ctx, 6, profile.UnifiedProfile{})

			Convey("Then eviction still removes the oldest survivor", func() {
				_, ok := c.Get(ctx, 1)
				So(ok, ShouldBeFalse)
				_, ok = c.Get(ctx, 3)
				So(ok, ShouldBeTrue)
				So(c.Size(), ShouldEqual, 3)
			})
		})
	})

	Convey("Given an unbounded cache", t, func() {
		c := profilecache.NewInMemoryCache(profilecache.WithMaxSize(0))

		Convey("Then nothing is evicted", func() {
			for k := uint64(0); k < 2000; k++ {
				c.Put(ctx, k, profile.UnifiedProfile{})
			}
			So(c.Size(), ShouldEqual, 2000)
		})
	})

	Convey("Given concurrent writers and readers", t, func() {
		c := profilecache.NewInMemoryCache(profilecache.WithMaxSize(64))
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					k := uint64(g*100 + i)
					c.Put(ctx, k, profile.UnifiedProfile{})
					c.Get(ctx, k)
				}
			}(g)
		}
		wg.Wait()

		Convey("Then the bound holds", func() {
			So(c.Size(), ShouldEqual, 64)
		})
	})
}
