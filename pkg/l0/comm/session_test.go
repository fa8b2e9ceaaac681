package comm_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/busservo/pkg/l0/comm"
	"github.com/robotalks/busservo/pkg/l0/comm/commtest"
)

func TestSessionSend(t *testing.T) {
	tr := commtest.New().WithEcho().Inject(0xde, 0xad)
	s := comm.NewSession(tr, comm.DefaultOptions())
	require.NoError(t, s.Send(comm.BroadcastAddress, 11, nil))
	require.Equal(t, 1, tr.Resets())
	require.Equal(t, commtest.MustEncode(comm.BroadcastAddress, 11), tr.LastWritten())
	require.Zero(t, tr.Pending())
}

func TestSessionSendNoEcho(t *testing.T) {
	tr := commtest.New()
	opts := comm.DefaultOptions()
	opts.DiscardEcho = false
	s := comm.NewSession(tr, opts)
	require.NoError(t, s.Send(1, 12, nil))
	require.Len(t, tr.Written(), 1)

	// with echo discarding enabled, a line that doesn't echo times out.
	s = comm.NewSession(tr, comm.DefaultOptions())
	err := s.Send(1, 12, nil)
	require.True(t, errors.Is(err, comm.ErrTimeout))
}

func TestSessionTransact(t *testing.T) {
	testCases := []struct {
		name    string
		retries int
		replies [][]byte
		writes  int
		err     error
	}{
		{
			name:    "first attempt",
			retries: 3,
			replies: [][]byte{commtest.MustEncode(1, 28, 0x10, 0x00)},
			writes:  1,
		},
		{
			name:    "retry after timeout",
			retries: 3,
			replies: [][]byte{nil, commtest.MustEncode(1, 28, 0x10, 0x00)},
			writes:  2,
		},
		{
			name:    "retry after checksum mismatch",
			retries: 3,
			replies: [][]byte{{0x55, 0x55, 1, 5, 28, 0x10, 0x00, 0x00}, commtest.MustEncode(1, 28, 0x10, 0x00)},
			writes:  2,
		},
		{
			name:    "retry after address mismatch",
			retries: 3,
			replies: [][]byte{commtest.MustEncode(2, 28, 0x10, 0x00), commtest.MustEncode(1, 28, 0x10, 0x00)},
			writes:  2,
		},
		{
			name:    "retry after opcode mismatch",
			retries: 3,
			replies: [][]byte{commtest.MustEncode(1, 27, 0x10, 0x00), nil, commtest.MustEncode(1, 28, 0x10, 0x00)},
			writes:  3,
		},
		{
			name:    "retries exhausted",
			retries: 2,
			replies: [][]byte{nil, nil, nil, commtest.MustEncode(1, 28, 0x10, 0x00)},
			writes:  3,
			err:     comm.ErrTimeout,
		},
		{
			name:    "last error returned",
			retries: 1,
			replies: [][]byte{nil, commtest.MustEncode(1, 27, 0x10, 0x00)},
			writes:  2,
			err:     comm.ErrProtocolMismatch,
		},
		{
			name:    "no retry",
			retries: 0,
			replies: [][]byte{nil, commtest.MustEncode(1, 28, 0x10, 0x00)},
			writes:  1,
			err:     comm.ErrTimeout,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tr := commtest.New().WithEcho()
			for _, reply := range tc.replies {
				tr.Reply(reply)
			}
			opts := comm.DefaultOptions()
			opts.Retries = tc.retries
			reply, err := comm.NewSession(tr, opts).Transact(1, 28, nil)
			require.Len(t, tr.Written(), tc.writes)
			if tc.err != nil {
				require.Truef(t, errors.Is(err, tc.err), "unexpected error %v", err)
				require.Nil(t, reply)
				return
			}
			require.NoError(t, err)
			require.Equal(t, byte(1), reply.Address)
			require.Equal(t, byte(28), reply.Opcode)
			require.Equal(t, []byte{0x10, 0x00}, reply.Params)
		})
	}
}

func TestSessionTransactMismatchDetail(t *testing.T) {
	tr := commtest.New().ReplyFrame(2, 28, 0x10, 0x00)
	opts := comm.DefaultOptions()
	opts.DiscardEcho, opts.Retries = false, 0
	_, err := comm.NewSession(tr, opts).Transact(1, 28, nil)
	var mErr *comm.MismatchError
	require.True(t, errors.As(err, &mErr))
	require.Equal(t, "address", mErr.Field)
	require.Equal(t, byte(1), mErr.Want)
	require.Equal(t, byte(2), mErr.Got)
}

func TestSessionInvalidArgument(t *testing.T) {
	tr := commtest.New().WithEcho()
	s := comm.NewSession(tr, comm.DefaultOptions())
	_, err := s.Transact(300, 28, nil)
	require.True(t, errors.Is(err, comm.ErrInvalidArgument))
	_, err = s.Transact(comm.BroadcastAddress, 28, nil)
	require.True(t, errors.Is(err, comm.ErrInvalidArgument))
	require.True(t, errors.Is(s.Send(1, 256, nil), comm.ErrInvalidArgument))
	require.Empty(t, tr.Written())
}

type brokenTransport struct {
	*commtest.Transport
	writes int
}

func (b *brokenTransport) Write(p []byte) (int, error) {
	b.writes++
	return 0, errors.New("broken pipe")
}

func TestSessionTransportError(t *testing.T) {
	tr := &brokenTransport{Transport: commtest.New()}
	_, err := comm.NewSession(tr, comm.DefaultOptions()).Transact(1, 28, nil)
	require.EqualError(t, err, "broken pipe")
	require.Equal(t, 1, tr.writes)
}

func TestSessionExclusive(t *testing.T) {
	tr := commtest.New().WithEcho()
	tr.Responder = func(req []byte) []byte {
		if req[4] == 28 {
			return commtest.MustEncode(int(req[2]), 28, req[2], 0)
		}
		return nil
	}
	s := comm.NewSession(tr, comm.DefaultOptions())

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 1; i <= callers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			errs <- s.Exclusive(func(c comm.Conn) error {
				for n := 0; n < 3; n++ {
					if err := c.Send(id, 7, []byte{byte(n), 0, 0, 0}); err != nil {
						return err
					}
					reply, err := c.Transact(id, 28, nil)
					if err != nil {
						return err
					}
					if reply.Params[0] != byte(id) {
						return fmt.Errorf("reply for %d received by %d", reply.Params[0], id)
					}
				}
				return nil
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	written := tr.Written()
	require.Len(t, written, callers*6)
	for i := 0; i < len(written); i += 6 {
		for n := 1; n < 6; n++ {
			require.Equalf(t, written[i][2], written[i+n][2], "frame %d interleaved", i+n)
		}
	}
}
