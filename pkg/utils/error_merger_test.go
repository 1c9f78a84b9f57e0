package utils

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeErrorChans(t *testing.T) {
	ch1 := make(chan error, 1)
	ch2 := make(chan error, 1)
	merged := MergeErrorChans(ch1, ch2)

	ch1 <- errors.New("error 1")
	ch2 <- errors.New("error 2")
	close(ch1)
	close(ch2)

	var received []string
	timeout := time.After(time.Second)
	for {
		select {
		case err, ok := <-merged:
			if !ok {
				sort.Strings(received)
				assert.Equal(t, []string{"error 1", "error 2"}, received)
				return
			}
			received = append(received, err.Error())
		case <-timeout:
			require.FailNow(t, "timeout waiting for merged channel")
		}
	}
}

func TestMergeErrorChansNoInputs(t *testing.T) {
	select {
	case _, ok := <-MergeErrorChans():
		assert.False(t, ok)
	case <-time.After(time.Second):
		require.FailNow(t, "merged channel never closed")
	}
}
