package di

import "reflect"

// TypeID identifies a Go type taking part in a context.
//
// Two TypeIDs are equal iff they denote the same type. TypeID is comparable and
// can be used as a map key. The zero TypeID denotes no type.
type TypeID struct {
	rt reflect.Type
}

// TypeOf returns the TypeID of T.
func TypeOf[T any]() TypeID { return TypeID{rt: reflect.TypeFor[T]()} }

// Type returns the underlying reflect.Type (nil for the zero TypeID).
func (id TypeID) Type() reflect.Type { return id.rt }

// IsZero reports whether id denotes no type.
func (id TypeID) IsZero() bool { return id.rt == nil }

// String returns the package-qualified type name, e.g. "github.com/acme/app.Store".
func (id TypeID) String() string {
	if id.rt == nil {
		return "<nil>"
	}
	if id.rt.Name() != "" && id.rt.PkgPath() != "" {
		return id.rt.PkgPath() + "." + id.rt.Name()
	}
	return id.rt.String()
}

// TypeIDs is a convenience for building dependency lists.
//
//	deps := di.TypeIDs(di.TypeOf[DB](), di.TypeOf[Logger]())
func TypeIDs(ids ...TypeID) []TypeID { return ids }
