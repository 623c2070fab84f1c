// Profiling:
// go build ./profile/query
// go tool pprof -http=":8000" -nodefraction=0.001 ./query mem.pprof
package main

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/edwinsyarief/chirashi"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

type comp3 struct {
	V int64
	W int64
}

const (
	entities   = 250000
	iterations = 1000
)

func main() {
	w := chirashi.NewWorld()
	batch := chirashi.CreateBatch3[comp1, comp2, comp3](w)
	batch.CreateEntities(entities)

	query := chirashi.NewQuery3[comp1, comp2, comp3](w, chirashi.InOut, chirashi.In, chirashi.In)
	for i := 0; i < iterations; i++ {
		query.Reset()
		for query.Next() {
			c1, c2, c3 := query.Get()
			c1.V += c2.V + c3.V
			c1.W += c2.W + c3.W
		}
	}

	runtime.GC()
	f, err := os.Create("mem.pprof")
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := pprof.WriteHeapProfile(f); err != nil {
		panic(err)
	}
}
