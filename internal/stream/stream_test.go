package stream

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/renameio/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/jestbridge/internal/core"
)

const waitTimeout = 5 * time.Second

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// rewrite replaces the whole file the way the runner's reporter does.
func rewrite(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, renameio.WriteFile(path, []byte(content), 0o600))
}

func next(t *testing.T, s *Stream) []byte {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	chunk, err := s.Next(ctx)
	require.NoError(t, err)
	return chunk
}

func openStream(t *testing.T, path string, opts ...Option) *Stream {
	t.Helper()
	s, err := Open(context.Background(), path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Stop()
		<-s.Done()
	})
	return s
}

func TestStream_InitialRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	writeFile(t, path, `{"testResults":[]}`)

	s := openStream(t, path)
	assert.Equal(t, `{"testResults":[]}`, string(next(t, s)))
}

func TestStream_InitialReadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	writeFile(t, path, "")

	s := openStream(t, path)
	assert.Empty(t, next(t, s))
}

func TestStream_RewriteYieldsTwoChunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	writeFile(t, path, "first")

	s := openStream(t, path)
	rewrite(t, path, "second, and longer")

	assert.Equal(t, "first", string(next(t, s)))
	assert.Equal(t, "second, and longer", string(next(t, s)))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_, err := s.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "no further chunk without another write")
}

func TestStream_InPlaceRewriteWithDebounce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	writeFile(t, path, "v1")

	s := openStream(t, path, WithDebounce(50*time.Millisecond))
	assert.Equal(t, "v1", string(next(t, s)))

	writeFile(t, path, "version two")

	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if string(next(t, s)) == "version two" {
			return
		}
	}
	t.Fatal("rewritten content was never published")
}

func TestStream_SnapshotsAreWhole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	writeFile(t, path, "snapshot-000")

	s := openStream(t, path)

	written := map[string]bool{"snapshot-000": true}
	for i := 1; i <= 20; i++ {
		content := fmt.Sprintf("snapshot-%03d%s", i, strings.Repeat("x", i*10))
		written[content] = true
		rewrite(t, path, content)
	}

	last := ""
	for last != fmt.Sprintf("snapshot-020%s", strings.Repeat("x", 200)) {
		chunk := string(next(t, s))
		require.True(t, written[chunk], "chunk %q is not one of the written snapshots", chunk)
		last = chunk
	}
}

func TestStream_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")
	writeFile(t, path, "mine")

	s := openStream(t, path)
	assert.Equal(t, "mine", string(next(t, s)))

	writeFile(t, filepath.Join(dir, "other.json"), "not mine")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_, err := s.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStream_StopDrainsThenReportsStopped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	writeFile(t, path, "only")

	s, err := Open(context.Background(), path)
	require.NoError(t, err)

	require.NoError(t, s.Stop())
	select {
	case <-s.Done():
	case <-time.After(waitTimeout):
		t.Fatal("teardown did not complete")
	}

	assert.Equal(t, "only", string(next(t, s)), "queued snapshot survives Stop")

	_, err = s.Next(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
	assert.True(t, core.IsCategory(err, core.ErrCatState))
	assert.NoError(t, s.Err())

	// Repeated Stop is a no-op.
	assert.NoError(t, s.Stop())
}

func TestStream_StopUnblocksConsumer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	writeFile(t, path, "x")

	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	_ = next(t, s)

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Next(context.Background())
		errCh <- err
	}()

	require.NoError(t, s.Stop())
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrStopped)
	case <-time.After(waitTimeout):
		t.Fatal("blocked consumer was not released")
	}
}

func TestStream_ParentContextCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	writeFile(t, path, "x")

	ctx, cancel := context.WithCancel(context.Background())
	s, err := Open(ctx, path)
	require.NoError(t, err)

	cancel()
	select {
	case <-s.Done():
	case <-time.After(waitTimeout):
		t.Fatal("cancelling the parent context did not stop the stream")
	}
}

func TestStream_Chunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	writeFile(t, path, "a")

	s, err := Open(context.Background(), path)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	var got []string
	for chunk, err := range s.Chunks(ctx) {
		require.NoError(t, err)
		got = append(got, string(chunk))
		if len(got) == 1 {
			require.NoError(t, s.Stop())
		}
	}
	assert.Equal(t, []string{"a"}, got)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatIO))
}

func TestStream_Path(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")
	writeFile(t, path, "")

	s := openStream(t, path)
	assert.True(t, filepath.IsAbs(s.Path()))
	assert.Equal(t, "results.json", filepath.Base(s.Path()))
}

func TestQueue_FIFO(t *testing.T) {
	q := newQueue()
	for i := 0; i < 100; i++ {
		q.push([]byte{byte(i)})
	}
	assert.Equal(t, 100, q.len())

	ctx := context.Background()
	for i := 0; i < 100; i++ {
		chunk, err := q.pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte{byte(i)}, chunk)
	}
}

func TestQueue_CloseAfterBacklog(t *testing.T) {
	q := newQueue()
	q.push([]byte("a"))
	boom := errors.New("boom")
	q.close(boom)
	q.close(errors.New("ignored"))
	q.push([]byte("dropped"))

	chunk, err := q.pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", string(chunk))

	_, err = q.pop(context.Background())
	assert.ErrorIs(t, err, boom)
	_, err = q.pop(context.Background())
	assert.ErrorIs(t, err, boom, "terminal error is sticky")
}

func TestQueue_PopHonoursContext(t *testing.T) {
	q := newQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.pop(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueue_WakesBlockedConsumer(t *testing.T) {
	q := newQueue()
	got := make(chan string, 1)
	go func() {
		chunk, _ := q.pop(context.Background())
		got <- string(chunk)
	}()

	time.Sleep(20 * time.Millisecond)
	q.push([]byte("late"))

	select {
	case v := <-got:
		assert.Equal(t, "late", v)
	case <-time.After(waitTimeout):
		t.Fatal("consumer was not woken")
	}
}
