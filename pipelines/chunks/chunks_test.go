// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package chunks_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mdhender/covrpt/pipelines/chunks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lines returns n numbered lines of varying width, about 2 MiB for n = 60000.
func lines(n int) []byte {
	var b bytes.Buffer
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d %d %s\n", i, i*7, strings.Repeat("x", i%23))
	}
	return b.Bytes()
}

func TestSplit_SmallInputIsOneChunk(t *testing.T) {
	data := []byte("a\nb\nc")
	got := chunks.Split(data, 8)
	require.Len(t, got, 1)
	assert.Equal(t, chunks.Chunk{Start: 0, End: 5, LineStart: 0, LineEnd: 5}, got[0])
	assert.Nil(t, chunks.Split(nil, 4))
}

func TestSplit_ChunksTileOnLineBoundaries(t *testing.T) {
	data := lines(60000)
	require.Greater(t, len(data), chunks.MinParallelSize)

	for _, n := range []int{1, 2, 3, 4, 7, 16} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			got := chunks.Split(data, n)
			require.NotEmpty(t, got)
			assert.LessOrEqual(t, len(got), n)
			assert.Equal(t, 0, got[0].LineStart)
			assert.Equal(t, len(data), got[len(got)-1].LineEnd)
			total := 0
			for i, c := range got {
				assert.Less(t, c.LineStart, c.LineEnd)
				if c.LineStart > 0 {
					assert.Equal(t, byte('\n'), data[c.LineStart-1])
				}
				if c.LineEnd < len(data) {
					assert.Equal(t, byte('\n'), data[c.LineEnd-1])
				}
				if i > 0 {
					assert.Equal(t, got[i-1].LineEnd, c.LineStart)
				}
				total += c.Len()
			}
			assert.Equal(t, len(data), total)
		})
	}
}

func TestSplit_LongLineCollapsesChunks(t *testing.T) {
	data := append(bytes.Repeat([]byte("y"), 2*chunks.MinParallelSize), '\n')
	data = append(data, "tail\n"...)
	got := chunks.Split(data, 8)
	require.NotEmpty(t, got)
	assert.Equal(t, 2*chunks.MinParallelSize+1, got[0].LineEnd)
	total := 0
	for _, c := range got {
		total += c.Len()
	}
	assert.Equal(t, len(data), total)
}

func TestMap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "groups.txt")
	require.NoError(t, os.WriteFile(path, []byte("1 2 3\n"), 0o644))

	m, err := chunks.Map(path)
	require.NoError(t, err)
	assert.Equal(t, "1 2 3\n", string(m.Bytes()))
	assert.Equal(t, 6, m.Len())
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = chunks.Map(empty)
	assert.ErrorIs(t, err, chunks.ErrEmptyFile)

	_, err = chunks.Map(filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = chunks.Map(dir)
	assert.ErrorIs(t, err, chunks.ErrNotRegular)
}

func TestNewlinesAndLines(t *testing.T) {
	data := []byte("ab\ncd\r\n\nlast")
	assert.Equal(t, []int{2, 6, 7}, chunks.Newlines(data))
	assert.Empty(t, chunks.Newlines([]byte("none")))

	var got []string
	chunks.Lines(data, func(line []byte) bool {
		got = append(got, string(line))
		return true
	})
	assert.Equal(t, []string{"ab", "cd", "", "last"}, got)

	got = got[:0]
	chunks.Lines(data, func(line []byte) bool {
		got = append(got, string(line))
		return false
	})
	assert.Equal(t, []string{"ab"}, got)
}

func TestFields(t *testing.T) {
	var got []string
	for _, f := range chunks.Fields([]byte("  45 50\t90.00   name  "), nil) {
		got = append(got, string(f))
	}
	assert.Equal(t, []string{"45", "50", "90.00", "name"}, got)
	assert.Empty(t, chunks.Fields([]byte(" \t "), nil))
	assert.Equal(t, []byte("x "), chunks.SkipSpace([]byte("\t x ")))
}

func TestParseUint(t *testing.T) {
	for in, want := range map[string]uint32{"0": 0, "45": 45, "12345678": 12345678, "123456789": 123456789, "4294967295": 4294967295} {
		got, err := chunks.ParseUint([]byte(in))
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "-1", "1a", "2.00", "4294967296"} {
		_, err := chunks.ParseUint([]byte(in))
		assert.ErrorIs(t, err, chunks.ErrNotNumber, in)
	}
}

func TestParseFloat(t *testing.T) {
	for in, want := range map[string]float64{"90.00": 90, "92.15": 92.15, "-1.5": -1.5, "+3": 3, ".5": 0.5, "7.": 7, "1e2": 100, "123456789.5": 123456789.5} {
		got, err := chunks.ParseFloat([]byte(in))
		require.NoError(t, err, in)
		assert.InDelta(t, want, got, 1e-9, in)
	}
	for _, in := range []string{"", ".", "-", "1.2.3", "abc", "12/34"} {
		_, err := chunks.ParseFloat([]byte(in))
		assert.ErrorIs(t, err, chunks.ErrNotNumber, in)
	}
}

func TestParseFloat_RejectsNonDecimalForms(t *testing.T) {
	for _, in := range []string{"NaN", "nan", "Inf", "-Inf", "+inf", "infinity", "0x1p4", "1_0", "1e400", "-1e400"} {
		_, err := chunks.ParseFloat([]byte(in))
		assert.ErrorIs(t, err, chunks.ErrNotNumber, in)
	}
}

func TestParseRatio(t *testing.T) {
	c, e, err := chunks.ParseRatio([]byte("12584/18392"))
	require.NoError(t, err)
	assert.Equal(t, uint32(12584), c)
	assert.Equal(t, uint32(18392), e)
	for _, in := range []string{"12584", "/1", "1/", "a/b"} {
		_, _, err = chunks.ParseRatio([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestPool(t *testing.T) {
	p := chunks.NewPool(16)
	a := p.String([]byte("alpha"))
	b := p.String([]byte("bravo-charlie"))
	big := p.Alloc(64)
	assert.Len(t, big, 64)
	assert.Equal(t, "alpha", a)
	assert.Equal(t, "bravo-charlie", b)
	assert.Equal(t, int64(5+13+64), p.Allocated())
	assert.Equal(t, 3, p.Blocks())
	assert.Equal(t, "", p.String(nil))
	assert.Nil(t, p.Alloc(0))

	p.Reset()
	assert.Equal(t, int64(0), p.Allocated())
	assert.Equal(t, 0, p.Blocks())
	c := p.String([]byte("delta"))
	assert.Equal(t, "alpha", a)
	assert.Equal(t, "delta", c)
}

func TestPool_ConcurrentAlloc(t *testing.T) {
	p := chunks.NewPool(0)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				s := p.String([]byte("0123456789"))
				if s != "0123456789" {
					t.Errorf("got %q", s)
					return
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(8*1000*10), p.Allocated())
}

func TestRun_ResultsInChunkOrder(t *testing.T) {
	data := lines(60000)
	list := chunks.Split(data, 6)
	got, err := chunks.Run(context.Background(), data, list, 3, func(_ context.Context, i int, b []byte) (int, error) {
		return len(chunks.Newlines(b)), nil
	})
	require.NoError(t, err)
	require.Len(t, got, len(list))
	total := 0
	for i, n := range got {
		assert.Equal(t, len(chunks.Newlines(data[list[i].LineStart:list[i].LineEnd])), n)
		total += n
	}
	assert.Equal(t, 60000, total)
}

func TestRun_ErrorsAndPanics(t *testing.T) {
	data := []byte("a\nb\n")
	list := chunks.Split(data, 1)
	boom := errors.New("boom")

	_, err := chunks.Run(context.Background(), data, list, 1, func(context.Context, int, []byte) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = chunks.Run(context.Background(), data, list, 1, func(context.Context, int, []byte) (int, error) {
		panic("bad chunk")
	})
	assert.ErrorContains(t, err, "bad chunk")
}
