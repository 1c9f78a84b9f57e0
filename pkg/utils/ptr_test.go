package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToPtr(t *testing.T) {
	s := ToPtr("hello")
	assert.Equal(t, "hello", *s)

	now := time.Now()
	assert.Equal(t, now, *ToPtr(now))
}
