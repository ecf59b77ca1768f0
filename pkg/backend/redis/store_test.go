package redis

import (
	"testing"

	"github.com/longbridgeapp/assert"
)

func TestNew(t *testing.T) {
	_, err := New()
	assert.True(t, err != nil)

	store, err := New(WithAddr("127.0.0.1:6379"), WithDB(2), WithUsername("bench"), WithPassword("secret"))
	assert.NoError(t, err)
	assert.Equal(t, 2, store.Client.Options().DB)
	assert.Equal(t, "bench", store.Client.Options().Username)

	_ = store.Client.Close()
}
