package book

import (
	"testing"

	"github.com/arblab/arbcore/internal/domain"
)

func BenchmarkApplyReplace(b *testing.B) {
	bk := New("binance", "ETH/BTC", 20)
	for i := 0; i < 20; i++ {
		_, _ = bk.Apply(upd(uint64(i+1), domain.SideBid, domain.FixedPoint(100+i), 10))
	}
	seq := uint64(21)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = bk.Apply(upd(seq, domain.SideBid, 110, domain.FixedPoint(1+i%100)))
		seq++
	}
}

func BenchmarkApplyInsertDelete(b *testing.B) {
	bk := New("binance", "ETH/BTC", 20)
	seq := uint64(1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		price := domain.FixedPoint(100 + i%20)
		_, _ = bk.Apply(upd(seq, domain.SideAsk, price, 5))
		seq++
		_, _ = bk.Apply(upd(seq, domain.SideAsk, price, 0))
		seq++
	}
}
