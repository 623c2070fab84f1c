// Profiling entity churn:
// go build ./profile/entities
// go tool pprof -http=":8000" ./entities cpu.pprof
package main

import (
	"github.com/pkg/profile"

	"github.com/edwinsyarief/chirashi"
)

type position struct {
	X, Y float32
}

type velocity struct {
	DX, DY float32
}

const (
	numEntities = 100000
	iters       = 200
)

func main() {
	defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()

	w := chirashi.NewWorld()
	batch := chirashi.CreateBatch2[position, velocity](w)
	query := chirashi.NewQuery2[position, velocity](w, chirashi.InOut, chirashi.In)

	entities := make([]chirashi.Entity, 0, numEntities)
	for i := 0; i < iters; i++ {
		entities = entities[:0]
		entities = append(entities, batch.CreateEntities(numEntities)...)
		query.Reset()
		for query.Next() {
			p, v := query.Get()
			p.X += v.DX
			p.Y += v.DY
		}
		w.DestroyEntities(entities)
	}
}
