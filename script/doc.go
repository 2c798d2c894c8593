// Package script is the host side of a script binding: it turns world
// components, resources and script-owned values into integer handles and
// exposes operations on them, both as Go methods and as wasm host functions.
//
// # Contexts
//
// A Context belongs to one script. It owns an allocator for values the
// script creates and a handle table for everything the script holds:
//
//	c := script.New(w, script.WithModuleName("refs"))
//	defer c.Close()
//
//	pos, _ := c.Component(entity, "position")
//	x, _ := c.Field(pos, "x")
//	_ = c.Set(x, 4.5)
//
// Handles for fields are lazy. Field, Index and Key never touch the world;
// the path is checked when the handle is read or written.
//
// # Host module
//
// Instantiate registers the host functions with a wazero runtime so that
// guests can import them:
//
//	r := wazero.NewRuntime(ctx)
//	if _, err := c.Instantiate(ctx, r); err != nil {
//	    return err
//	}
//	guest, err := r.Instantiate(ctx, wasmBytes)
//
// Failures are returned to the guest as a Status code. The message of the
// last failure, including the reference it concerned, is available through
// the last_error import and Context.LastError.
package script
