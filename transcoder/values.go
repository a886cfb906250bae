package transcoder

// Handle is a resource, future, or stream handle crossing the boundary.
type Handle uint32

// Option is the dynamic value of an option type. Value is ignored when
// Some is false.
type Option struct {
	Value any
	Some  bool
}

// Expected is the dynamic value of an expected type. Value holds the ok
// payload or the error payload depending on IsErr.
type Expected struct {
	Value any
	IsErr bool
}

// Variant is the dynamic value of a variant type, selected by case name.
// Payload is nil for payload-less cases.
type Variant struct {
	Case    string
	Payload any
}

// Union is the dynamic value of a union type, selected by case index.
type Union struct {
	Value any
	Case  uint32
}
