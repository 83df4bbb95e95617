package chunk

import "errors"

var ErrInvalidArgument = errors.New("invalid argument - chunk size must be a positive number")

// Chunk partitions seq into consecutive sub-slices of at most size elements,
// in order. The last chunk holds the remainder. An empty seq yields no chunks.
//
// The returned chunks alias seq.
func Chunk[T any](seq []T, size int) ([][]T, error) {
	if size <= 0 {
		return nil, ErrInvalidArgument
	}

	chunks := make([][]T, 0, (len(seq)+size-1)/size)
	for start := 0; start < len(seq); start += size {
		end := min(start+size, len(seq))
		chunks = append(chunks, seq[start:end:end])
	}
	return chunks, nil
}
