package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("FOYER_TEST_VALUE", "  mysql  ")
	assert.Equal(t, "mysql", EnvOrDefault("FOYER_TEST_VALUE", "memory"))

	t.Setenv("FOYER_TEST_VALUE", "   ")
	assert.Equal(t, "memory", EnvOrDefault("FOYER_TEST_VALUE", "memory"))
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("FOYER_TEST_TIMEOUT", "250ms")
	assert.Equal(t, 250*time.Millisecond, EnvDuration("FOYER_TEST_TIMEOUT", time.Second))

	for _, bad := range []string{"soon", "-1s", "0s"} {
		t.Setenv("FOYER_TEST_TIMEOUT", bad)
		assert.Equal(t, time.Second, EnvDuration("FOYER_TEST_TIMEOUT", time.Second), bad)
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("FOYER_TEST_FLAG", "true")
	assert.True(t, EnvBool("FOYER_TEST_FLAG", false))

	t.Setenv("FOYER_TEST_FLAG", "nope")
	assert.True(t, EnvBool("FOYER_TEST_FLAG", true))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, SplitList(" http://a, ,http://b,"))
	assert.Empty(t, SplitList(""))
}
