// Command tinfoilgen generates typed injection contexts from a context description.
//
// The di package builds contexts from a Schema registered at runtime. tinfoilgen
// writes that registration for you, plus a small typed wrapper, from a YAML or
// JSON description of the context's fields:
//
//   - New<Context>(params...) takes exactly the parameter fields, in declaration order
//   - one accessor per field returning *T
//   - the wrapper implements di.Provider, so di.Get/MustGet work on it directly
//
// No reflection-driven discovery, no scanning of struct tags: the description is the
// single source of truth and the generated code is plain, reviewable Go.
//
// Context description
//
//	package: greeting
//	context: InjectionContext
//	imports:
//	  di: github.com/sghaida/tinfoil/di   # optional, inferred when omitted
//	  extra:                              # optional, for types from other packages
//	    - path: net/http
//	fields:
//	  - name: coolValue
//	    type: MyCoolValue
//	    kind: parameter
//	  - name: otherCoolValue
//	    type: MyOtherCoolValue
//	    kind: default
//	    defaultFunc: NewMyOtherCoolValue   # optional; zero value + SetDefaults otherwise
//	  - name: coolDependency
//	    type: CoolDependency
//	    kind: computed                     # mode: derive (default) | declare | constructor
//	  - name: report
//	    type: Report
//	    kind: computed
//	    mode: constructor
//	    constructor: NewReport             # func(di.Provider) (Report, error)
//	    dependsOn: [CoolDependency, MyOtherCoolValue]
//
// Computed modes map onto the di registration functions:
//
//   - derive:      di.Derive[T]   (exported pointer fields are the dependencies)
//   - declare:     di.Declare[T]  (T implements di.Dependency[T])
//   - constructor: di.Computed[T] with the dependsOn list and the constructor symbol
//
// Field names become parameters of New<Context>, so names the generated code
// uses itself (ctx, err, c, fmt, di, sync, nil, panic, the context type, its
// constructor and schema variable) are rejected.
//
// Field order is preserved: it fixes the parameter order of New<Context> and the
// slot order of the context.
//
// Typical go:generate usage
//
//	//go:generate go run ../../cmd/tinfoilgen -spec context.yaml -out context.gen.go
//
// Import inference
//
// When imports.di is empty, tinfoilgen looks for an import aliased "di" or ending in
// "/di" in the non-generated sources of the output package, and falls back to
// github.com/sghaida/tinfoil/di.
package main
