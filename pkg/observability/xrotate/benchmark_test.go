package xrotate

import (
	"path/filepath"
	"strings"
	"testing"
)

func BenchmarkEmit(b *testing.B) {
	line := strings.Repeat("x", 120)
	benchmarks := []struct {
		name string
		opts []Option
	}{
		{"保持句柄", nil},
		{"每次打开", []Option{WithKeepFileOpen(false), WithKeepLockFileOpen(false)}},
		{"按大小轮转", []Option{WithMaxBytes(1 << 20), WithBackupCount(3)}},
		{"Latin-1编码", []Option{WithEncoding("iso-8859-1")}},
	}
	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			w, err := NewSize(filepath.Join(b.TempDir(), "bench.log"), bm.opts...)
			if err != nil {
				b.Fatal(err)
			}
			defer w.Close()

			b.ReportAllocs()
			b.SetBytes(int64(len(line) + 1))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := w.Emit(line); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkEmitParallel(b *testing.B) {
	w, err := NewSize(filepath.Join(b.TempDir(), "bench.log"), WithMaxBytes(4<<20), WithBackupCount(2))
	if err != nil {
		b.Fatal(err)
	}
	defer w.Close()

	line := strings.Repeat("y", 120)
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if err := w.Emit(line); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

func BenchmarkRecordEncoder(b *testing.B) {
	e, err := newRecordEncoder("GBK", ErrorPolicyReplace)
	if err != nil {
		b.Fatal(err)
	}
	rec := []byte(strings.Repeat("日志记录 log record ", 8))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.encode(rec, "\n"); err != nil {
			b.Fatal(err)
		}
	}
}
