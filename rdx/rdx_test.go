package rdx

import (
	"context"
	"errors"
	"testing"
	"time"

	"ticketbari/apperr"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedToken(tok string) func() string {
	return func() string { return tok }
}

func TestLockAcquireAndRelease(t *testing.T) {
	client, mock := redismock.NewClientMock()
	locker := NewLocker(client, 5*time.Second)
	locker.token = fixedToken("tok-1")

	mock.ExpectSetNX("lock:tickets:advertise", "tok-1", 5*time.Second).SetVal(true)
	mock.ExpectEvalSha(releaseScript.Hash(), []string{"lock:tickets:advertise"}, "tok-1").SetVal(int64(1))

	unlock, err := locker.Lock(context.Background(), "lock:tickets:advertise")
	require.NoError(t, err)
	unlock()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseLeavesLaterHolderAlone(t *testing.T) {
	client, mock := redismock.NewClientMock()
	first := NewLocker(client, time.Second)
	first.token = fixedToken("tok-1")
	second := NewLocker(client, time.Second)
	second.token = fixedToken("tok-2")

	mock.ExpectSetNX("k", "tok-1", time.Second).SetVal(true)
	// the first TTL ran out, so the second process gets the key
	mock.ExpectSetNX("k", "tok-2", time.Second).SetVal(true)
	// the stale release only deletes a key still holding tok-1
	mock.ExpectEvalSha(releaseScript.Hash(), []string{"k"}, "tok-1").SetVal(int64(0))
	mock.ExpectEvalSha(releaseScript.Hash(), []string{"k"}, "tok-2").SetVal(int64(1))

	unlockFirst, err := first.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlockSecond, err := second.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlockFirst()
	unlockSecond()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDefaultTokensAreUnique(t *testing.T) {
	client, _ := redismock.NewClientMock()
	locker := NewLocker(client, 0)
	assert.NotEqual(t, locker.token(), locker.token())
}

func TestLockHeldElsewhere(t *testing.T) {
	client, mock := redismock.NewClientMock()
	locker := NewLocker(client, 0)
	locker.token = fixedToken("tok-1")

	mock.ExpectSetNX("lock:pay:session:cs_1", "tok-1", DefaultLockTTL).SetVal(false)

	_, err := locker.Lock(context.Background(), "lock:pay:session:cs_1")
	assert.ErrorIs(t, err, apperr.ErrBusy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockRedisDown(t *testing.T) {
	client, mock := redismock.NewClientMock()
	locker := NewLocker(client, time.Second)

	mock.Regexp().ExpectSetNX("k", ".+", time.Second).SetErr(errors.New("connection refused"))

	_, err := locker.Lock(context.Background(), "k")
	assert.ErrorIs(t, err, apperr.ErrUpstream)
}
