package checkers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestPostgresChecker(t *testing.T) {
	assert.Equal(t, "postgres", NewPostgresChecker(fakePinger{}, "").Name())
	assert.NoError(t, NewPostgresChecker(fakePinger{}, "db").Check(context.Background()))

	err := NewPostgresChecker(fakePinger{err: errors.New("connection refused")}, "db").Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres ping failed: connection refused")
}
