package generator

// stdintNames are the <stdint.h> types that libc.stdint exports.
var stdintNames = map[string]bool{
	"int8_t": true, "uint8_t": true,
	"int16_t": true, "uint16_t": true,
	"int32_t": true, "uint32_t": true,
	"int64_t": true, "uint64_t": true,
	"int_least8_t": true, "uint_least8_t": true,
	"int_least16_t": true, "uint_least16_t": true,
	"int_least32_t": true, "uint_least32_t": true,
	"int_least64_t": true, "uint_least64_t": true,
	"int_fast8_t": true, "uint_fast8_t": true,
	"int_fast16_t": true, "uint_fast16_t": true,
	"int_fast32_t": true, "uint_fast32_t": true,
	"int_fast64_t": true, "uint_fast64_t": true,
	"intptr_t": true, "uintptr_t": true,
	"intmax_t": true, "uintmax_t": true,
}

// stdintSet collects the stdint names a unit uses, in first-use order.
type stdintSet struct {
	seen  map[string]bool
	names []string
}

func (s *stdintSet) add(name string) {
	if !stdintNames[name] || s.seen[name] {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	s.seen[name] = true
	s.names = append(s.names, name)
}
