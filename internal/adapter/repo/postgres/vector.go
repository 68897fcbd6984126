package postgres

import (
	"strconv"
	"strings"
)

// encodeVector renders an embedding in pgvector's text literal form,
// e.g. "[0.1,0.2,0.3]", suitable for a $n::vector parameter.
func encodeVector(v []float32) string {
	var b strings.Builder
	b.Grow(len(v)*10 + 2)
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
