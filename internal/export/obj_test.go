package export

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/annel0/aether/internal/logging"
	"github.com/annel0/aether/internal/mesh"
	"github.com/annel0/aether/internal/vec"
	"github.com/annel0/aether/internal/world"
	"github.com/annel0/aether/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleBlockMesh(t *testing.T, nexus vec.Coordinate) (*world.Island, *world.ChunkMesh) {
	t.Helper()
	island := world.NewIsland(0, nexus, world.Dimensions{Width: 2, Height: 1, Depth: 2}, world.DefaultSeed, nil)
	chunk, ok := island.GetChunk(vec.New(1, 0, 0), true)
	require.True(t, ok)
	require.True(t, chunk.UpdateBlock(world.NewBlock(block.Stone, vec.New(0, 0, 0))))
	return island, mesh.NewGenerator().Extract(chunk)
}

func countPrefixes(t *testing.T, r io.Reader) map[string]int {
	t.Helper()
	counts := make(map[string]int)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) > 0 {
			counts[fields[0]]++
		}
	}
	require.NoError(t, sc.Err())
	return counts
}

func TestEncodeOBJ(t *testing.T) {
	_, m := singleBlockMesh(t, vec.New(0, 0, 0))

	var buf bytes.Buffer
	require.NoError(t, EncodeOBJ(&buf, m, mgl32.Vec3{}))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "o chunk_1_0_0\n"))
	counts := countPrefixes(t, strings.NewReader(out))
	assert.Equal(t, 24, counts["v"])
	assert.Equal(t, 24, counts["vt"])
	assert.Equal(t, 12, counts["f"])
	assert.Contains(t, out, "f 1/1 2/2 3/3\n", "индексы OBJ начинаются с единицы")
}

func TestOBJWriter_WriteMesh(t *testing.T) {
	dir := t.TempDir()
	w, err := NewOBJWriter(dir, logging.NewWriterLogger("export", nil, nil))
	require.NoError(t, err)

	island, m := singleBlockMesh(t, vec.New(0, 0, 0))
	require.NoError(t, w.WriteMesh(island, m))

	path := w.Path(island, m.Chunk)
	assert.True(t, strings.HasSuffix(path, "island_0/chunk_1_0_0.obj.zst"))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)

	counts := countPrefixes(t, bytes.NewReader(data))
	assert.Equal(t, 24, counts["v"])
	assert.Equal(t, 12, counts["f"])

	// вершины сдвинуты в мировые координаты чанка (25, 0, 0)
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "v ") {
			continue
		}
		x, err := strconv.ParseFloat(strings.Fields(line)[1], 32)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, x, 25.0)
		assert.LessOrEqual(t, x, 26.0)
	}

	entries, err := os.ReadDir(dir + "/island_0")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "временные файлы удаляются")
}

func TestOBJWriter_NexusOffset(t *testing.T) {
	w, err := NewOBJWriter(t.TempDir(), logging.NewWriterLogger("export", nil, nil))
	require.NoError(t, err)

	island, m := singleBlockMesh(t, vec.New(1, 0, 0))
	require.NoError(t, w.WriteMesh(island, m))

	r, err := Open(w.Path(island, m.Chunk))
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), "v 5025 ", "остров со смещённым нексусом")
}

func TestOBJWriter_SkipsEmptyAndUnknown(t *testing.T) {
	dir := t.TempDir()
	w, err := NewOBJWriter(dir, logging.NewWriterLogger("export", nil, nil))
	require.NoError(t, err)

	island, m := singleBlockMesh(t, vec.New(0, 0, 0))
	require.NoError(t, w.WriteMesh(island, &world.ChunkMesh{Chunk: m.Chunk}))
	_, err = os.Stat(w.Path(island, m.Chunk))
	assert.True(t, os.IsNotExist(err), "пустой меш не пишется")

	m.Chunk = vec.Key{0, 0, 1}
	assert.Error(t, w.WriteMesh(island, m), "чанк ещё не создан")
}
