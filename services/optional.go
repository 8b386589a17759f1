package services

// Optional distinguishes an absent field (Set=false) from an explicit null
// (Set=true, Value=nil) in partial updates.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func Some[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: &v} }

func Null[T any]() Optional[T] { return Optional[T]{Set: true} }

// Or returns the new value when set, cur otherwise.
func (o Optional[T]) Or(cur *T) *T {
	if o.Set {
		return o.Value
	}
	return cur
}
