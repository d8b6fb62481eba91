// Package trie wraps the double-array trie over wordlist keys: building
// it from a sorted key set, persisting it as a single binary file with
// an atomic temp-then-rename swap, and loading it back with mmap so the
// resolver's longest-match search never copies the whole structure into
// the Go heap.
package trie

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/ikawaha/dartsclone"

	"github.com/nii-geonlp/geonlp-go/internal/entity"
)

// Match is one common-prefix-search hit: Len is the matched byte length
// of the query, Value is the WordlistEntry sequence id stored at that key.
type Match struct {
	Len   int
	Value int
}

// Index is the loaded, queryable trie plus its backing mmap.
type Index struct {
	da   *dartsclone.DoubleArray
	file *os.File
	mm   mmap.MMap
}

// Build constructs a double-array trie over the given keys, which must
// already be sorted ascending and correspond positionally to values:
// sequence ids are assigned in sorted-key order before the trie is
// built.
func Build(keys []string) (*dartsclone.DoubleArray, error) {
	da, err := dartsclone.Build(keys)
	if err != nil {
		return nil, entity.NewTrieBuildError("double-array build failed", err)
	}
	return da, nil
}

// Persist writes da to path via a temp file in the same directory, then
// renames it over path, so a reader never observes a partially written
// trie. UpdateWordlists persists to a staging path and renames that over
// the live trie only after the wordlist table swap has committed.
func Persist(da *dartsclone.DoubleArray, path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return entity.NewTrieBuildError("create temp trie file", err)
	}

	if _, err := da.WriteTo(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return entity.NewTrieBuildError("write trie", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return entity.NewTrieBuildError("close temp trie file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return entity.NewTrieBuildError("rename temp trie file into place", err)
	}
	return nil
}

// Open mmaps path read-only and prepares it for common-prefix search.
// Returns entity.ErrIndexMissing if the file does not exist or is empty.
func Open(path string) (*Index, error) {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return nil, entity.ErrIndexMissing
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, entity.NewTrieBuildError("open trie file", err)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, entity.NewTrieBuildError("mmap trie file", err)
	}

	da, err := dartsclone.Open(bytesReader(m))
	if err != nil {
		m.Unmap()
		f.Close()
		return nil, entity.NewTrieBuildError("decode mmapped trie", err)
	}

	return &Index{da: da, file: f, mm: m}, nil
}

// CommonPrefixSearch returns every key in the trie that is a prefix of s,
// starting at byte offset 0, longest match last.
func (idx *Index) CommonPrefixSearch(s string) []Match {
	pairs := idx.da.CommonPrefixSearch(s, 0)
	out := make([]Match, len(pairs))
	for i, p := range pairs {
		out[i] = Match{Len: p.Len, Value: p.Value}
	}
	return out
}

// Close unmaps and closes the backing file.
func (idx *Index) Close() error {
	if idx == nil {
		return nil
	}
	if err := idx.mm.Unmap(); err != nil {
		return err
	}
	return idx.file.Close()
}

type byteReaderAt struct {
	b []byte
}

func (r byteReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(r.b)) {
		return 0, fmt.Errorf("trie: read past end of mapped file")
	}
	n := copy(p, r.b[off:])
	return n, nil
}

func bytesReader(b []byte) byteReaderAt { return byteReaderAt{b: b} }
