// Package convert bridges script-level literals and host values.
//
// ToPrimitive classifies a host value into a Primitive: a signed, unsigned or
// float number, a bool, a string, unit, a list, a map, an option, or an
// opaque value passed through untouched. Convert turns a Primitive back into
// a value of a requested Go type.
//
// Numeric conversion follows native cast semantics and never fails:
//
//	Convert(Int(300), uint8)   -> 44
//	Convert(Int(-1), uint8)    -> 255
//	Convert(Float(3.9), int32) -> 3
//	Convert(Float(1e20), int8) -> 127
//	Convert(Float(NaN), int)   -> 0
//
// Everything else is strict. Strings only become string kinds or []byte,
// containers convert element by element, and opaque values only convert to
// their exact concrete type.
package convert
