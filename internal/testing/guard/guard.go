package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("MOLECULA_TEST_MODE") == "" {
			_ = os.Setenv("MOLECULA_TEST_MODE", "1")
		}
	})
}
