package crash

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"tg-filedrop/internal/logger"
)

// RecoverWithStack must be deferred directly; it logs a recovered panic with
// its stack and lets the goroutine end normally
func RecoverWithStack(name string) {
	if r := recover(); r != nil {
		reportPanic("PANIC", name, r)
	}
}

// RecoverWithStackAndExit is the main goroutine variant: it logs and exits non-zero
func RecoverWithStackAndExit(name string) {
	if r := recover(); r != nil {
		reportPanic("FATAL PANIC", name, r)

		// let the rotating writer flush
		time.Sleep(1 * time.Second)
		os.Exit(1)
	}
}

// SafeGoroutine starts fn in a goroutine that cannot take the process down
func SafeGoroutine(name string, fn func()) {
	go func() {
		defer RecoverWithStack("goroutine-" + name)
		fn()
	}()
}

// SetupCrashHandler turns memory faults into recoverable panics
func SetupCrashHandler() {
	debug.SetPanicOnFault(true)
}

func reportPanic(tag, name string, r interface{}) {
	stack := debug.Stack()

	logger.Errorf("%s in %s: %v", tag, name, r)
	logger.Errorf("Stack trace:\n%s", stack)

	// stderr too, so container logs show it even if the file writer is broken
	fmt.Fprintf(os.Stderr, "[%s] %s - %s: %v\n%s\n", tag, time.Now().Format("2006-01-02 15:04:05"), name, r, stack)

	logRuntimeInfo()
}

func logRuntimeInfo() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	logger.Errorf("Runtime: go=%s cpus=%d goroutines=%d heap_alloc=%dKB heap_inuse=%dKB stack_inuse=%dKB num_gc=%d",
		runtime.Version(),
		runtime.NumCPU(),
		runtime.NumGoroutine(),
		m.HeapAlloc/1024,
		m.HeapInuse/1024,
		m.StackInuse/1024,
		m.NumGC,
	)
}
