package main

import "github.com/wippyai/scriptref/world"

type vec3 struct {
	X, Y, Z float64
}

type transform struct {
	Parent      *vec3
	Tags        []string
	Translation vec3
	Scale       vec3
}

type health struct {
	Modifiers map[string]int
	Current   int32
	Max       int32
}

type score struct {
	History []int
	Value   int
	Level   uint8
}

type settings struct {
	Difficulty string `script:"difficulty"`
	Volume     float32
}

// demoWorld builds the world the shell starts with: two entities with a
// transform, one with health, a writable Score and a read-only Settings.
func demoWorld() *world.World {
	w := world.New(world.WithLogger(logger.Named("world")))
	world.RegisterComponent[transform](w, world.WithName("Transform"))
	world.RegisterComponent[health](w, world.WithName("Health"))
	world.RegisterResource[score](w, world.WithName("Score"))
	world.RegisterResource[settings](w, world.WithName("Settings"), world.ReadOnly())

	player := w.Spawn()
	must(world.Insert(w, player, transform{
		Translation: vec3{X: 1, Y: 2, Z: 3},
		Scale:       vec3{X: 1, Y: 1, Z: 1},
		Tags:        []string{"player"},
	}))
	must(world.Insert(w, player, health{
		Current:   80,
		Max:       100,
		Modifiers: map[string]int{"armor": 5},
	}))

	crate := w.Spawn()
	must(world.Insert(w, crate, transform{
		Translation: vec3{X: -4},
		Scale:       vec3{X: 2, Y: 2, Z: 2},
		Parent:      &vec3{X: 1, Y: 2, Z: 3},
	}))

	must(world.InsertResource(w, score{Value: 0, Level: 1}))
	must(world.InsertResource(w, settings{Difficulty: "normal", Volume: 0.8}))
	return w
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
