package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type rec struct {
	ID  string
	Val int
}

func newRecs() *Collection[rec] {
	return NewCollection(func(r rec) string { return r.ID })
}

func TestCollection_Mutations(t *testing.T) {
	c := newRecs()
	assert.Empty(t, c.Items())

	c.Replace([]rec{{"a", 1}, {"b", 2}})
	c.Append(rec{"c", 3})
	c.ReplaceByID(rec{"b", 20})
	c.ReplaceByID(rec{"zz", 99})
	c.Upsert(rec{"a", 10})
	c.Upsert(rec{"d", 4})
	c.Remove("c")
	c.Remove("missing")

	assert.Equal(t, []rec{{"a", 10}, {"b", 20}, {"d", 4}}, c.Items())

	got, ok := c.Lookup("b")
	assert.True(t, ok)
	assert.Equal(t, 20, got.Val)
	_, ok = c.Lookup("zz")
	assert.False(t, ok)
}

func TestCollection_InsertBefore(t *testing.T) {
	c := newRecs()
	c.Replace([]rec{{"a", 9}, {"b", 5}, {"c", 1}})

	// keep descending order by Val
	c.InsertBefore(rec{"x", 6}, func(e rec) bool { return e.Val < 6 })
	c.InsertBefore(rec{"y", 0}, func(e rec) bool { return e.Val < 0 })
	c.InsertBefore(rec{"z", 10}, func(e rec) bool { return e.Val < 10 })

	ids := []string{}
	for _, r := range c.Items() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"z", "a", "x", "b", "c", "y"}, ids)
}

func TestCollection_ItemsIsACopy(t *testing.T) {
	c := newRecs()
	c.Replace([]rec{{"a", 1}})
	items := c.Items()
	items[0].Val = 100
	assert.Equal(t, 1, c.Items()[0].Val)
}

func TestCollection_ClosedIgnoresMutations(t *testing.T) {
	c := newRecs()
	c.Replace([]rec{{"a", 1}})
	c.Close()

	assert.False(t, c.Replace(nil))
	assert.False(t, c.Append(rec{"b", 2}))
	assert.False(t, c.Remove("a"))
	assert.True(t, c.Closed())
	assert.Equal(t, []rec{{"a", 1}}, c.Items())
}

func TestCollection_Busy(t *testing.T) {
	c := newRecs()
	assert.False(t, c.Busy())

	done1 := c.Begin()
	done2 := c.Begin()
	assert.True(t, c.Busy())
	done1()
	done1()
	assert.True(t, c.Busy())
	done2()
	assert.False(t, c.Busy())
}

func TestCollection_OnChange(t *testing.T) {
	c := newRecs()
	var sizes []int
	c.OnChange(func(n int) { sizes = append(sizes, n) })

	c.Append(rec{"a", 1})
	c.Append(rec{"b", 1})
	c.Remove("a")
	assert.Equal(t, []int{1, 2, 1}, sizes)
}

func TestCollection_Concurrent(t *testing.T) {
	c := newRecs()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			done := c.Begin()
			defer done()
			c.Upsert(rec{ID: string(rune('a' + i%26)), Val: i})
		}(i)
		go func() {
			defer wg.Done()
			_ = c.Items()
		}()
	}
	wg.Wait()
	assert.Equal(t, 26, c.Len())
	assert.False(t, c.Busy())
}
