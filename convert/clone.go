package convert

import "reflect"

// Clone returns an addressable deep copy of v. Pointers, slices, maps and
// interfaces are copied recursively; shared pointers stay shared within the
// copy. Unexported struct fields are copied shallowly. Funcs and channels
// keep their identity.
func Clone(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}
	out := reflect.New(v.Type()).Elem()
	c := cloner{seen: make(map[seenKey]reflect.Value)}
	c.into(out, v)
	return out
}

// CloneAny is Clone for plain Go values.
func CloneAny[T any](v T) T {
	return Clone(reflect.ValueOf(&v).Elem()).Interface().(T)
}

type seenKey struct {
	t   reflect.Type
	ptr uintptr
}

type cloner struct {
	seen map[seenKey]reflect.Value
}

func (c *cloner) into(dst, src reflect.Value) {
	switch src.Kind() {
	case reflect.Pointer:
		if src.IsNil() {
			return
		}
		key := seenKey{t: src.Type(), ptr: src.Pointer()}
		if p, ok := c.seen[key]; ok {
			dst.Set(p)
			return
		}
		p := reflect.New(src.Type().Elem())
		c.seen[key] = p
		c.into(p.Elem(), src.Elem())
		dst.Set(p)

	case reflect.Interface:
		if src.IsNil() {
			return
		}
		e := reflect.New(src.Elem().Type()).Elem()
		c.into(e, src.Elem())
		dst.Set(e)

	case reflect.Slice:
		if src.IsNil() {
			return
		}
		s := reflect.MakeSlice(src.Type(), src.Len(), src.Len())
		for i := 0; i < src.Len(); i++ {
			c.into(s.Index(i), src.Index(i))
		}
		dst.Set(s)

	case reflect.Array:
		for i := 0; i < src.Len(); i++ {
			c.into(dst.Index(i), src.Index(i))
		}

	case reflect.Map:
		if src.IsNil() {
			return
		}
		m := reflect.MakeMapWithSize(src.Type(), src.Len())
		iter := src.MapRange()
		for iter.Next() {
			k := reflect.New(src.Type().Key()).Elem()
			c.into(k, iter.Key())
			e := reflect.New(src.Type().Elem()).Elem()
			c.into(e, iter.Value())
			m.SetMapIndex(k, e)
		}
		dst.Set(m)

	case reflect.Struct:
		dst.Set(src)
		for i := 0; i < src.NumField(); i++ {
			f := dst.Field(i)
			if !f.CanSet() {
				continue
			}
			c.into(f, src.Field(i))
		}

	default:
		dst.Set(src)
	}
}
