// Package args adapts typed parsers to flag.Value .
package args

// Adapter is a flag.Value backed by a parser.
type Adapter[T interface{ String() string }] struct {
	value  T
	parser func(string) (T, error)
	isSet  bool
}

func (a *Adapter[T]) String() string {
	if a == nil || a.parser == nil {
		return ""
	}
	return a.value.String()
}

func (a *Adapter[T]) Set(s string) error {
	v, err := a.parser(s)
	if err != nil {
		return err
	}
	a.value = v
	a.isSet = true
	return nil
}

// Value returns the parsed value, or the default one when the flag is not set.
func (a *Adapter[T]) Value() T {
	return a.value
}

// IsSet tells whether the flag is set in command line.
func (a *Adapter[T]) IsSet() bool {
	return a.isSet
}

// Parser creates an Adapter. Its default value is zero.
func Parser[T interface{ String() string }](parser func(string) (T, error)) *Adapter[T] {
	return &Adapter[T]{parser: parser}
}

// ParserWithDefault creates an Adapter having default value.
func ParserWithDefault[T interface{ String() string }](parser func(string) (T, error), value T) *Adapter[T] {
	return &Adapter[T]{parser: parser, value: value}
}
