package commitlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSelectReturnsYoungestMatch(t *testing.T) {
	now := time.Now()
	pointers := []Pointer{
		{LookupID: "a", CreatedAt: now},
		{LookupID: "b", CreatedAt: now.Add(time.Minute)},
		{LookupID: "a", CreatedAt: now.Add(time.Hour)},
	}
	idx := Select(pointers, "a")
	assert.Equal(t, 2, idx)
}

func TestSelectReturnsNegativeOneWhenNoMatch(t *testing.T) {
	pointers := []Pointer{{LookupID: "a", CreatedAt: time.Now()}}
	assert.Equal(t, -1, Select(pointers, "missing"))
}

func TestSelectBreaksTiesByLaterIndex(t *testing.T) {
	now := time.Now()
	pointers := []Pointer{
		{LookupID: "a", CreatedAt: now},
		{LookupID: "a", CreatedAt: now},
	}
	assert.Equal(t, 1, Select(pointers, "a"))
}
