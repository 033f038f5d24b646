package contracts

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetFullVersionString(t *testing.T) {
	s := GetFullVersionString()
	assert.True(t, strings.HasPrefix(s, Version+" "))
	assert.Contains(t, s, runtime.Version())
	assert.Contains(t, s, "commit: "+GitCommit)
}
