package sound

import "io"

// loopReader replays a PCM payload forever. Backend players consume their
// reader until EOF, so a looping source simply never reaches it.
type loopReader struct {
	data []byte
	pos  int
}

func newLoopReader(data []byte) *loopReader {
	return &loopReader{data: data}
}

func (l *loopReader) Read(p []byte) (int, error) {
	if len(l.data) == 0 {
		return 0, io.EOF
	}

	total := 0
	for total < len(p) {
		n := copy(p[total:], l.data[l.pos:])
		total += n
		l.pos += n
		if l.pos >= len(l.data) {
			l.pos = 0
		}
	}
	return total, nil
}
