package mocks

// CallLog records arguments of calls to a mocked method.
type CallLog[T any] []T

// Times returns how many times the method is called.
func (l CallLog[T]) Times() uint {
	return uint(len(l))
}
