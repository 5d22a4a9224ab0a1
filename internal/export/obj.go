package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/annel0/aether/internal/logging"
	"github.com/annel0/aether/internal/vec"
	"github.com/annel0/aether/internal/world"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/klauspost/compress/zstd"
)

// Extension - расширение файлов дампа
const Extension = ".obj.zst"

// OBJWriter сохраняет меши чанков в формате Wavefront OBJ, сжатые zstd.
// Каждый чанк пишется в отдельный файл <dir>/island_<id>/chunk_<x>_<y>_<z>.obj.zst,
// повторная отрисовка перезаписывает файл.
type OBJWriter struct {
	dir    string
	logger *logging.Logger
}

// NewOBJWriter создаёт каталог dir при необходимости
func NewOBJWriter(dir string, logger *logging.Logger) (*OBJWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("создание каталога дампов %s: %w", dir, err)
	}
	if logger == nil {
		logger = logging.GetComponentLogger("export")
	}
	return &OBJWriter{dir: dir, logger: logger}, nil
}

// Path возвращает путь файла меша чанка
func (w *OBJWriter) Path(island *world.Island, chunk vec.Key) string {
	return filepath.Join(w.dir,
		fmt.Sprintf("island_%d", island.ID()),
		fmt.Sprintf("chunk_%d_%d_%d%s", chunk[0], chunk[1], chunk[2], Extension))
}

// WriteMesh пишет меш во временный файл и атомарно переименовывает его
func (w *OBJWriter) WriteMesh(island *world.Island, m *world.ChunkMesh) error {
	if m.IsEmpty() {
		return nil
	}
	chunk, ok := island.GetChunk(vec.New(m.Chunk[0], m.Chunk[1], m.Chunk[2]), false)
	if !ok {
		return fmt.Errorf("чанк %v не найден на острове %d", m.Chunk, island.ID())
	}

	path := w.Path(island, m.Chunk)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".chunk-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := writeCompressed(tmp, m, chunk.WorldLocation().WorldPosition()); err != nil {
		tmp.Close()
		return fmt.Errorf("запись меша %v: %w", m.Chunk, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}

	w.logger.Trace("💾 Меш %v сохранён в %s (%d граней)", m.Chunk, path, m.FaceCount)
	return nil
}

func writeCompressed(out io.Writer, m *world.ChunkMesh, offset mgl32.Vec3) error {
	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)
	if err := EncodeOBJ(bw, m, offset); err != nil {
		enc.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// EncodeOBJ пишет меш как один объект OBJ. Вершины сдвигаются на offset,
// индексы граней в OBJ начинаются с 1.
func EncodeOBJ(w io.Writer, m *world.ChunkMesh, offset mgl32.Vec3) error {
	if _, err := fmt.Fprintf(w, "o chunk_%d_%d_%d\n", m.Chunk[0], m.Chunk[1], m.Chunk[2]); err != nil {
		return err
	}
	for _, v := range m.Vertices {
		p := v.Add(offset)
		if _, err := fmt.Fprintf(w, "v %g %g %g\n", p.X(), p.Y(), p.Z()); err != nil {
			return err
		}
	}
	for _, uv := range m.UVs {
		if _, err := fmt.Fprintf(w, "vt %g %g\n", uv.X(), uv.Y()); err != nil {
			return err
		}
	}
	for i := 0; i+2 < len(m.Triangles); i += 3 {
		a, b, c := m.Triangles[i]+1, m.Triangles[i+1]+1, m.Triangles[i+2]+1
		if _, err := fmt.Fprintf(w, "f %d/%d %d/%d %d/%d\n", a, a, b, b, c, c); err != nil {
			return err
		}
	}
	return nil
}

// Open открывает дамп и возвращает распакованный поток OBJ
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &decoder{dec: dec, file: f}, nil
}

type decoder struct {
	dec  *zstd.Decoder
	file *os.File
}

func (d *decoder) Read(p []byte) (int, error) { return d.dec.Read(p) }

func (d *decoder) Close() error {
	d.dec.Close()
	return d.file.Close()
}
