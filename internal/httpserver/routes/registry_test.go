package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEveryEndpointGroupIsRegistered(t *testing.T) {
	assert.Equal(t, []string{"navigate", "ops", "readyz", "reload", "resolve"}, Names())
}
