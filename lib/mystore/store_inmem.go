package mystore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

type inMemoryStore[T any] struct {
	sync.Mutex
	items map[string]T
}

func newInMemoryStore[T any](c context.Context) (*inMemoryStore[T], func(), error) {
	return &inMemoryStore[T]{
		items: make(map[string]T),
	}, func() {}, nil
}

func (s *inMemoryStore[T]) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	// Start transaction
	s.Lock()

	// The marker identifies this store: another store touched within the
	// same transaction must still take its own lock
	ctx := context.WithValue(c, ctxTransactionKey{}, s)

	// Within this block everything is transactional
	err := f(ctx)
	if err != nil {
		// Rollback
		s.Unlock()

		return err
	}

	// Commit
	s.Unlock()

	return nil
}

func (s *inMemoryStore[T]) inOwnTransaction(c context.Context) bool {
	return c.Value(ctxTransactionKey{}) == any(s)
}

func (s *inMemoryStore[T]) Put(c context.Context, uid string, value T) error {
	if !s.inOwnTransaction(c) {
		s.Lock()
		defer s.Unlock()
	}

	s.items[uid] = value

	return nil
}

func (s *inMemoryStore[T]) Delete(c context.Context, uid string) error {
	if !s.inOwnTransaction(c) {
		s.Lock()
		defer s.Unlock()
	}

	delete(s.items, uid)

	return nil
}

func (s *inMemoryStore[T]) Get(c context.Context, uid string) (T, bool, error) {
	if !s.inOwnTransaction(c) {
		s.Lock()
		defer s.Unlock()
	}

	result, exists := s.items[uid]

	return result, exists, nil
}

func (s *inMemoryStore[T]) List(c context.Context) ([]T, error) {
	if !s.inOwnTransaction(c) {
		s.Lock()
		defer s.Unlock()
	}

	result := make([]T, 0, len(s.items))
	for _, v := range s.items {
		result = append(result, v)
	}

	return result, nil
}

func (s *inMemoryStore[T]) Query(c context.Context, filters []Filter, orderByField string) ([]T, error) {
	all, err := s.List(c)
	if err != nil {
		return nil, err
	}

	result := make([]T, 0, len(all))
	for _, item := range all {
		matches, err := matchesFilters(item, filters)
		if err != nil {
			return nil, err
		}
		if matches {
			result = append(result, item)
		}
	}

	if orderByField != "" {
		sort.SliceStable(result, func(i, j int) bool {
			return lessOnField(result[i], result[j], orderByField)
		})
	}

	return result, nil
}

func matchesFilters[T any](item T, filters []Filter) (bool, error) {
	for _, f := range filters {
		fieldValue := reflect.ValueOf(item).FieldByName(f.Field)
		if !fieldValue.IsValid() {
			return false, fmt.Errorf("unknown filter field %s on %T", f.Field, item)
		}

		// Same operator set as the datastore backend, so a comparator
		// that would fail in production fails in tests too
		equal := reflect.DeepEqual(fieldValue.Interface(), f.Value)
		switch f.Compare {
		case "=":
			if !equal {
				return false, nil
			}
		case "!=":
			if equal {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported compare operator %s", f.Compare)
		}
	}

	return true, nil
}

func lessOnField[T any](a, b T, fieldName string) bool {
	av := reflect.ValueOf(a).FieldByName(fieldName)
	bv := reflect.ValueOf(b).FieldByName(fieldName)
	if !av.IsValid() || !bv.IsValid() {
		return false
	}

	switch av.Kind() {
	case reflect.String:
		return av.String() < bv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return av.Int() < bv.Int()
	default:
		// time.Time and other structs: compare on their string form
		return fmt.Sprintf("%v", av.Interface()) < fmt.Sprintf("%v", bv.Interface())
	}
}
