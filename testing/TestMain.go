package testing

import (
	"os"
	stdtesting "testing"

	// The guard sets MOLECULA_TEST_MODE at init so binaries refuse to start
	// inside a test run.
	_ "github.com/molecula-pos/molecula-pos/internal/testing/guard"
)

func TestMain(m *stdtesting.M) {
	os.Exit(m.Run())
}
