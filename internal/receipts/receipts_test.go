package receipts

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	uid, eid := uuid.New(), uuid.New()
	k := Key(uid, eid, `C:\scans\Train Ticket.PDF`)
	assert.True(t, strings.HasPrefix(k, "receipts/"+uid.String()+"/"+eid.String()+"/"))
	assert.True(t, strings.HasSuffix(k, ".pdf"))
	assert.NotEqual(t, k, Key(uid, eid, "Train Ticket.PDF"), "keys are unique per upload")
	assert.False(t, strings.Contains(Key(uid, eid, "noext"), "."))
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, m.Put(ctx, "a.png", strings.NewReader("png!"), 4, "image/png"))
	obj, err := m.Get(ctx, "a.png")
	require.NoError(t, err)
	defer obj.Body.Close()
	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "png!", string(data))
	assert.Equal(t, int64(4), obj.Size)
	assert.Equal(t, "image/png", obj.ContentType)

	assert.Error(t, m.Put(ctx, "b", strings.NewReader("abc"), 5, "text/plain"), "size mismatch")

	require.NoError(t, m.Delete(ctx, "a.png"))
	_, err = m.Get(ctx, "a.png")
	assert.ErrorIs(t, err, ErrNotFound)
}
