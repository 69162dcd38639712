// Package jsvalue models the host-side values that cross the guest boundary.
//
// A guest compiled against the browser binding surface expects every host
// reference to behave like an ECMAScript value. This package gives those
// values a Go shape:
//
//	Undefined{}, Null{}     - the two nullish singletons
//	bool, float64, string   - primitives (all numbers are float64)
//	*big.Int                - BigInt
//	*Symbol                 - symbols, compared by identity
//	*Object, *Array         - ordered property bags and dense arrays
//	*ArrayBuffer            - byte storage shared by typed array views
//	*Uint8Array             - byte views
//	*Float32Array           - float views
//	*Error                  - thrown exceptions, also a Go error
//	Callable                - anything invocable, including guest closures
//
// Host objects (elements, GL objects, requests) take part in reflection by
// implementing PropertyGetter, PropertySetter and ClassNamer.
//
// # Operations
//
// The helpers mirror the operators the glue relies on:
//
//	TypeOf(v)               - typeof
//	StrictEquals(a, b)      - ===
//	LooseEquals(a, b)       - ==
//	ToNumber(v)             - unary +
//	Get, Set, Has           - property access and the in operator
//	InstanceOf(v, "Error")  - instanceof against a class name
//	DebugString(v)          - diagnostic formatting for panics and logs
//	Stringify, Parse        - JSON.stringify and JSON.parse
package jsvalue
