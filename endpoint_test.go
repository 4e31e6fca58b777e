package loctek

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipePort is a Port fed through an io.Pipe.
type pipePort struct {
	r *io.PipeReader

	mu      sync.Mutex
	written bytes.Buffer
	drains  int
}

func (p *pipePort) Read(bs []byte) (int, error) { return p.r.Read(bs) }

func (p *pipePort) Write(bs []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.Write(bs)
}

func (p *pipePort) Drain() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drains++
	return nil
}

func TestEndpoint_ConsumeQueuesBytes(t *testing.T) {
	r, w := io.Pipe()
	port := &pipePort{r: r}
	ep := NewEndpoint("desk", port)

	var chunks [][]byte
	var mu sync.Mutex
	ep.OnReceive = func(bs []byte) {
		mu.Lock()
		defer mu.Unlock()
		chunks = append(chunks, append([]byte(nil), bs...))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- ep.Consume(ctx) }()

	_, err := w.Write([]byte{0x98, 0x03, 0x00})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return ep.Buffered() == 3 }, time.Second, time.Millisecond)

	var got []byte
	for {
		b, err := ep.ReadByte()
		if errors.Is(err, ErrNoData) {
			break
		}
		require.NoError(t, err)
		got = append(got, b)
	}
	assert.Equal(t, []byte{0x98, 0x03, 0x00}, got)

	mu.Lock()
	assert.Equal(t, [][]byte{{0x98, 0x03, 0x00}}, chunks)
	mu.Unlock()

	w.CloseWithError(io.ErrClosedPipe)
	err = <-done
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestEndpoint_ReadByteEmpty(t *testing.T) {
	ep := NewEndpoint("keypad", &pipePort{})
	_, err := ep.ReadByte()
	assert.ErrorIs(t, err, ErrNoData)
}

func TestEndpoint_WriteAndFlush(t *testing.T) {
	port := &pipePort{}
	ep := NewEndpoint("desk", port)

	require.NoError(t, ep.WriteByte(0x9b))
	_, err := ep.Write([]byte{0x06, 0x02})
	require.NoError(t, err)
	require.NoError(t, ep.Flush())

	assert.Equal(t, []byte{0x9b, 0x06, 0x02}, port.written.Bytes())
	assert.Equal(t, 1, port.drains)
}
