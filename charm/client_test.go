package charm

import (
	"bytes"
	"testing"

	"github.com/harperreed/frontdesk/localstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientAsLocalStoreBackend(t *testing.T) {
	c := NewTestClient(t)
	store := localstore.New(c, AppName)

	var v map[string]int
	found, err := store.GetJSON("queue", &v)
	require.NoError(t, err)
	assert.False(t, found, "missing keys must map to not found")

	require.NoError(t, store.SetJSON("queue", map[string]int{"pending": 2}))
	found, err = store.GetJSON("queue", &v)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, v["pending"])

	keys, err := c.KeysWithPrefix(AppName + ":")
	require.NoError(t, err)
	assert.Equal(t, []string{"frontdesk:queue"}, keys)

	require.NoError(t, store.Remove("queue"))
	found, err = store.GetJSON("queue", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestWipeCommandRequiresConfirm(t *testing.T) {
	c := NewTestClient(t)
	require.NoError(t, c.Set([]byte("frontdesk:cache"), []byte("{}")))

	var out bytes.Buffer
	require.NoError(t, WipeCommand(c, &out, nil))
	assert.Contains(t, out.String(), "--confirm")

	_, err := c.Get([]byte("frontdesk:cache"))
	require.NoError(t, err, "data must survive an unconfirmed wipe")

	out.Reset()
	require.NoError(t, WipeCommand(c, &out, []string{"--confirm"}))
	_, err = c.Get([]byte("frontdesk:cache"))
	assert.ErrorIs(t, err, localstore.ErrNotFound)
}

func TestSyncNowCommand(t *testing.T) {
	c := NewTestClient(t)
	var out bytes.Buffer
	require.NoError(t, SyncNowCommand(c, &out, nil))
	assert.Contains(t, out.String(), "Synced")
}
