package chirashi

import (
	"fmt"
	"testing"
)

func BenchmarkCreateEntities(b *testing.B) {
	sizes := []int{1000, 10000, 100000}
	for _, size := range sizes {
		b.Run(fmt.Sprintf("%dK", size/1000), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				w := NewWorld()
				batch := CreateBatch2[Position, Velocity](w)
				b.StartTimer()
				batch.CreateEntities(size)
			}
			b.ReportAllocs()
		})
	}
}

func BenchmarkQueryIterate(b *testing.B) {
	sizes := []int{1000, 10000, 100000}
	for _, size := range sizes {
		b.Run(fmt.Sprintf("%dK", size/1000), func(b *testing.B) {
			w := NewWorld()
			batch := CreateBatch2[Position, Velocity](w)
			batch.CreateEntitiesWith(size, Position{}, Velocity{DX: 1, DY: 1})
			q := NewQuery2[Position, Velocity](w, InOut, In)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				q.Reset()
				for q.Next() {
					p, v := q.Get()
					p.X += v.DX
					p.Y += v.DY
				}
			}
		})
	}
}

func BenchmarkParallelIterate(b *testing.B) {
	w := NewWorld()
	batch := CreateBatch2[Position, Velocity](w)
	batch.CreateEntitiesWith(100000, Position{}, Velocity{DX: 1, DY: 1})
	q := NewQuery2[Position, Velocity](w, InOut, In)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.ParallelForEach(func(_ Entity, p *Position, v *Velocity) {
			p.X += v.DX
			p.Y += v.DY
		})
	}
}

func BenchmarkGetComponent(b *testing.B) {
	w := NewWorld()
	e := Spawn(w, Position{X: 1}, Velocity{})
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = GetComponent[Position](w, e)
	}
}

func BenchmarkArchetypeMigration(b *testing.B) {
	w := NewWorld()
	e := Spawn(w, Position{})
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		SetComponent(w, e, Velocity{})
		RemoveComponent[Velocity](w, e)
	}
}

func BenchmarkCommandPlayback(b *testing.B) {
	w := NewWorld()
	cb := w.Deferred()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for i := 0; i < 1000; i++ {
			ph := cb.Create()
			PushAdd(cb, ph, Position{X: 1})
		}
		if err := cb.playback(); err != nil {
			b.Fatal(err)
		}
		b.StopTimer()
		w.Clear()
		b.StartTimer()
	}
}
