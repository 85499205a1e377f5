// Package strategy provides the worklist orders used to walk control-flow
// graphs.
package strategy

type Strategy[T any] interface {
	Size() int
	HasNext() bool
	Pop() (T, error)
	Push(...T) error
}
