// Package fanout реализует примитив рассылки с ограниченным параллелизмом:
// элементы обрабатываются пачками фиксированного размера, внутри пачки —
// параллельно. Ошибка одного элемента не прерывает ни пачку, ни последующие
// пачки: все отправки доводятся до конца, результат агрегируется.
package fanout

import "sync"

// Result агрегирует итог обработки всех элементов.
type Result struct {
	Total       int
	Success     int
	Failed      int
	FailedItems []string
}

// Run обрабатывает items пачками размера batchSize, вызывая fn для каждого
// элемента в отдельной горутине. Следующая пачка начинается только после
// завершения всех вызовов текущей.
func Run(items []string, batchSize int, fn func(item string) error) Result {
	if batchSize <= 0 {
		batchSize = 1
	}

	res := Result{Total: len(items)}
	var mu sync.Mutex

	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}

		var wg sync.WaitGroup
		for _, item := range items[start:end] {
			wg.Add(1)
			go func(item string) {
				defer wg.Done()
				err := fn(item)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					res.Failed++
					res.FailedItems = append(res.FailedItems, item)
				} else {
					res.Success++
				}
			}(item)
		}
		wg.Wait()
	}
	return res
}
