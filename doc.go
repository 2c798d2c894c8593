// Package scriptref lets an embedded script runtime read and write host
// data through reflective references instead of copies.
//
// A reference is a root plus a path. The root is a component on an entity,
// a world resource, a script-owned allocation or a caller-owned value. The
// path is a list of field, index, key and custom steps. Nothing is resolved
// when a reference is built; every access re-checks the root, claims it
// without blocking and walks the path again.
//
// # Architecture Overview
//
//	scriptref/
//	├── errors/        Structured error kinds shared by every package
//	├── access/        Non-blocking shared/exclusive claims on roots
//	├── liveness/      Script-owned allocations and weak liveness tokens
//	├── world/         Host store: entities, components, resources
//	├── reflectpath/   Path elements, walking, hooks and path syntax
//	├── convert/       Primitive values, casts, deep clone, WIT type mapping
//	├── ref/           References, bases, held claims, typed helpers
//	├── handle/        Integer handles for references held by scripts
//	├── script/        Script contexts and the wasm host module
//	└── cmd/refshell/  Inspector for references into a demo world
//
// # Quick Start
//
//	w := world.New()
//	e := w.Spawn()
//	_ = world.Insert(w, e, Transform{Translation: Vec3{X: 1}})
//
//	r, err := ref.Parse(w, fmt.Sprintf("Transform@%d.translation.x", e))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = r.SetValue(4)          // int converted to float64
//	v, _ := r.Primitive()
//	fmt.Println(v)             // 4
//
// Failures are *errors.Error values carrying a kind, the phase that failed
// and the reference they concern, e.g.
//
//	[path] invalid_reflection_path at (Transform on 1).translation.w: Go type main.Vec3 - no such field
package scriptref
